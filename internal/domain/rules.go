package domain

// MoveOption pairs a piece with a destination reachable by one of the pending
// dice. Captures records whether applying the option displaces opposing
// pieces, so callers never re-derive it.
type MoveOption struct {
	PieceIndex int         `json:"piece_index"`
	DieIndex   int         `json:"die_index"`
	Die        int         `json:"die"`
	Dest       Destination `json:"dest"`
	Captures   bool        `json:"captures"`
}

// LegalMoves computes every move the given color may make with the state's
// pending dice. It is pure and deterministic: identical inputs always yield
// the identical option list, ordered by die index then piece index.
func LegalMoves(g *GameState, c Color) []MoveOption {
	pl, ok := g.PlayerByColor(c)
	if !ok {
		return nil
	}

	var out []MoveOption
	for di, die := range g.PendingDice {
		for _, piece := range pl.Pieces {
			opt, ok := moveFor(g, piece, di, die)
			if ok {
				out = append(out, opt)
			}
		}
	}
	return out
}

// moveFor resolves a single (piece, die) pair into a legal option, if any.
func moveFor(g *GameState, piece *Piece, dieIndex, die int) (MoveOption, bool) {
	rules := g.Rules
	var dest Destination

	switch piece.Area {
	case AreaGoal:
		return MoveOption{}, false
	case AreaBase:
		if die < rules.ExitRollThreshold {
			return MoveOption{}, false
		}
		dest = Destination{Area: AreaTrack, Progress: 0}
	default:
		next := piece.Progress + die
		switch {
		case next < rules.TrackLength:
			dest = Destination{Area: AreaTrack, Progress: next}
		case next == rules.TrackLength:
			dest = Destination{Area: AreaGoal, Progress: rules.TrackLength}
		default:
			if !rules.AllowOvershoot {
				return MoveOption{}, false
			}
			dest = Destination{Area: AreaGoal, Progress: rules.TrackLength}
		}
	}

	opt := MoveOption{
		PieceIndex: piece.Index,
		DieIndex:   dieIndex,
		Die:        die,
		Dest:       dest,
	}
	if dest.Area != AreaTrack {
		return opt, true
	}

	cell := g.Board.cellFor(piece.Owner, dest.Progress)
	for _, occ := range g.PiecesAt(cell) {
		if occ.Owner == piece.Owner {
			if !rules.StackingAllowed {
				return MoveOption{}, false
			}
			continue
		}
		// Opposing occupants block safe cells and are captured elsewhere.
		if g.Board.IsSafe(cell) {
			return MoveOption{}, false
		}
		opt.Captures = true
	}
	return opt, true
}

// FindMove matches a client-submitted (piece, destination) selection against
// the legal-move set. With duplicate dice the lowest die index wins, which
// keeps the choice deterministic.
func FindMove(options []MoveOption, pieceIndex int, dest Destination) (MoveOption, bool) {
	for _, opt := range options {
		if opt.PieceIndex == pieceIndex && opt.Dest == dest {
			return opt, true
		}
	}
	return MoveOption{}, false
}
