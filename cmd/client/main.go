// The client command is the interactive terminal player. It connects to
// a table server, renders the table broadcasts, and turns menu
// selections into wire actions.
package main

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"royale/internal/client"
)

// ui is the table state as last reported by the server. The controller's
// read goroutine writes it; the input loop reads it.
type ui struct {
	mu        sync.Mutex
	seatID    int
	credits   int
	turn      int
	canSplit  bool
	status    string
	betPlaced bool
	gone      bool
}

func (u *ui) update(f func(*ui)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	f(u)
}

func (u *ui) snapshot() ui {
	u.mu.Lock()
	defer u.mu.Unlock()
	return ui{
		seatID:    u.seatID,
		credits:   u.credits,
		turn:      u.turn,
		canSplit:  u.canSplit,
		status:    u.status,
		betPlaced: u.betPlaced,
		gone:      u.gone,
	}
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <host> <port>\n", os.Args[0])
		os.Exit(1)
	}
	addr := os.Args[1] + ":" + os.Args[2]

	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Black", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("jack", pterm.FgRed.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	state := &ui{}

	c, err := client.Dial(addr, client.Handlers{
		SeatAssigned: func(seatID, credits int) {
			state.update(func(u *ui) {
				u.seatID = seatID
				u.credits = credits
			})
			pterm.Info.Printfln("seated as player %d with %d credits", seatID, credits)
		},
		StateChanged: func(turn int, canSplit bool, status string) {
			state.update(func(u *ui) {
				u.turn = turn
				u.canSplit = canSplit
				u.status = status
			})
			if status != "" {
				renderTable(status, state.snapshot().seatID, turn)
			}
		},
		RoundSettled: func(outcomes []int, credits int, note string) {
			state.update(func(u *ui) {
				u.credits = credits
				u.betPlaced = false
			})
			printResults(outcomes, credits, note)
		},
		ActionRejected: func(reason string) {
			pterm.Error.Println(reason)
		},
	})
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(); err != nil {
			pterm.Error.Println(err)
		}
		state.update(func(u *ui) { u.gone = true })
	}()

	inputLoop(c, state, done)

	<-done
	pterm.Info.Println("disconnected")
}

// inputLoop prompts for whatever actions are legal in the current
// state and sends the chosen one.
func inputLoop(c *client.Controller, state *ui, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		s := state.snapshot()
		switch {
		case s.gone:
			return
		case s.seatID == 0:
			// Seat assignment is in flight.
			time.Sleep(100 * time.Millisecond)
		case s.turn == s.seatID:
			if quit := promptHandAction(c, s); quit {
				return
			}
		case s.turn == 0 && !s.betPlaced:
			if quit := promptBet(c, state, s); quit {
				return
			}
		default:
			// Someone else's turn, or our bet is in and the round is
			// still being collected.
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func promptHandAction(c *client.Controller, s ui) bool {
	options := []string{"hit", "stand", "double down", "surrender"}
	if s.canSplit {
		options = append(options, "split")
	}
	options = append(options, "leave table")

	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Your turn").
		WithOptions(options).
		Show()

	var err error
	switch choice {
	case "hit":
		err = c.Hit()
	case "stand":
		err = c.Stand()
	case "double down":
		err = c.DoubleDown()
	case "split":
		err = c.Split()
	case "surrender":
		err = c.Surrender()
	case "leave table":
		_ = c.Leave()
		return true
	}
	if err != nil {
		pterm.Error.Println(err)
	}

	// Give the server's response a moment to arrive before re-prompting.
	time.Sleep(200 * time.Millisecond)
	return false
}

func promptBet(c *client.Controller, state *ui, s ui) bool {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Next round (%d credits)", s.credits)).
		WithOptions([]string{"place bet", "sit this one out", "leave table"}).
		Show()

	switch choice {
	case "place bet":
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Bet amount").
			Show()
		amount, err := strconv.Atoi(raw)
		if err != nil || amount <= 0 {
			pterm.Error.Println("bets must be a positive number")
			return false
		}
		if err := c.PlaceBet(amount); err != nil {
			pterm.Error.Println(err)
			return false
		}
		state.update(func(u *ui) { u.betPlaced = true })
	case "sit this one out":
		if err := c.DeclineRound(); err != nil {
			pterm.Error.Println(err)
			return false
		}
		state.update(func(u *ui) { u.betPlaced = true })
	case "leave table":
		_ = c.Leave()
		return true
	}

	time.Sleep(200 * time.Millisecond)
	return false
}
