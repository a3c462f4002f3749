package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed so keys are stable across runs; stored cache
// entries depend on that.
var (
	zobristPiece      [13][64]uint64 // [Piece][Square], row 0 (NoPiece) unused
	zobristEnPassant  [8]uint64      // One per file
	zobristCastling   [16]uint64     // All 16 castling combinations
	zobristSideToMove uint64         // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	for p := WhitePawn; p <= BlackKing; p++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[p][sq] = rng.next()
		}
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	zobristSideToMove = rng.next()
}

// Hash computes the Zobrist hash of the state. The move counters are not
// part of the key.
func (s State) Hash() uint64 {
	var hash uint64

	for sq, p := range s.Board {
		if p != NoPiece {
			hash ^= zobristPiece[p][sq]
		}
	}

	if s.Turn == Black {
		hash ^= zobristSideToMove
	}

	hash ^= zobristCastling[s.Castling&AllCastling]

	if s.EnPassant.IsValid() {
		hash ^= zobristEnPassant[s.EnPassant.File()]
	}

	return hash
}
