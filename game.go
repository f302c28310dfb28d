package war

import (
	"fmt"

	"github.com/tkahng/war/random"
)

// DefaultMaxRounds bounds a game that would otherwise cycle forever.
const DefaultMaxRounds = 10000

// Result is the outcome of a complete game.
type Result int

const (
	Draw Result = iota
	Player1Wins
	Player2Wins
)

func (r Result) String() string {
	switch r {
	case Player1Wins:
		return "Player 1"
	case Player2Wins:
		return "Player 2"
	case Draw:
		return "Draw"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Winner returns the seat credited with the result, or NoSeat for a draw.
func (r Result) Winner() Seat {
	switch r {
	case Player1Wins:
		return Player1
	case Player2Wins:
		return Player2
	default:
		return NoSeat
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	switch r {
	case Player1Wins:
		return []byte("player_1"), nil
	case Player2Wins:
		return []byte("player_2"), nil
	case Draw:
		return []byte("draw"), nil
	default:
		return nil, fmt.Errorf("unknown result %d", int(r))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Result) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player_1":
		*r = Player1Wins
	case "player_2":
		*r = Player2Wins
	case "draw":
		*r = Draw
	default:
		return fmt.Errorf("unknown result %q", text)
	}
	return nil
}

// Outcome summarizes a finished game.
type Outcome struct {
	Result       Result `json:"result"`
	Rounds       int    `json:"rounds"`
	Wars         int    `json:"wars"`
	Player1Cards int    `json:"player_1_cards"`
	Player2Cards int    `json:"player_2_cards"`
}

// Game holds the two hands of a single game. A Game is not safe for
// concurrent use; each game owns its hands for its whole lifetime.
type Game struct {
	p1, p2    *Hand
	maxRounds int
	rounds    int
	wars      int
}

// NewGame deals a fresh deck with s.
func NewGame(s Shuffler) *Game {
	p1, p2 := Deal(NewDeck(), s)
	return NewGameFromHands(p1, p2)
}

// NewGameFromHands starts a game from already dealt hands.
func NewGameFromHands(p1, p2 *Hand) *Game {
	return &Game{
		p1:        p1,
		p2:        p2,
		maxRounds: DefaultMaxRounds,
	}
}

// WithMaxRounds replaces the round bound. Non-positive values keep the
// current bound.
func (g *Game) WithMaxRounds(n int) *Game {
	if n > 0 {
		g.maxRounds = n
	}
	return g
}

func (g *Game) Player1() *Hand { return g.p1 }

func (g *Game) Player2() *Hand { return g.p2 }

func (g *Game) Rounds() int { return g.rounds }

// Over reports whether a hand is exhausted or the round bound was reached.
func (g *Game) Over() bool {
	return g.p1.Empty() || g.p2.Empty() || g.rounds >= g.maxRounds
}

// PlayRound resolves the next round. It is a no-op once the game is over.
func (g *Game) PlayRound() Round {
	if g.Over() {
		return Round{}
	}
	r := PlayRound(g.p1, g.p2)
	g.rounds++
	g.wars += r.Wars
	return r
}

// Result reports the winner of the game in its current state. A player wins
// only when the opponent's hand is empty and theirs is not; every other state
// is a draw.
func (g *Game) Result() Result {
	switch {
	case g.p2.Empty() && !g.p1.Empty():
		return Player1Wins
	case g.p1.Empty() && !g.p2.Empty():
		return Player2Wins
	default:
		return Draw
	}
}

// Play runs rounds until the game is over.
func (g *Game) Play() Outcome {
	for !g.Over() {
		g.PlayRound()
	}
	return Outcome{
		Result:       g.Result(),
		Rounds:       g.rounds,
		Wars:         g.wars,
		Player1Cards: g.p1.Len(),
		Player2Cards: g.p2.Len(),
	}
}

// Engine plays complete games under a fixed round bound.
type Engine struct {
	MaxRounds int
}

// Play deals a fresh deck with s and plays it to the end.
func (e Engine) Play(s Shuffler) Outcome {
	return NewGame(s).WithMaxRounds(e.MaxRounds).Play()
}

// PlayGame plays one game with the process-wide random source and the default
// round bound.
func PlayGame() Result {
	return Engine{MaxRounds: DefaultMaxRounds}.Play(random.Global{}).Result
}
