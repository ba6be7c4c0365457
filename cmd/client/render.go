package main

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

// Table broadcasts arrive as one line per hand:
//
//	<-- Player <id> hand: <index> <code> <code> ...
//
// with the dealer reported as player 0. Card codes are a rank symbol
// followed by a suit character.

type handLine struct {
	playerID  int
	handIndex int
	cards     []string
}

// parseStatus extracts the hand lines from a table broadcast, ignoring
// anything that does not match the grammar.
func parseStatus(status string) []handLine {
	var hands []handLine
	for _, line := range strings.Split(status, "\n") {
		fields := strings.Fields(line)
		// "<--" "Player" "<id>" "hand:" "<index>" cards...
		if len(fields) < 5 || fields[0] != "<--" || fields[1] != "Player" || fields[3] != "hand:" {
			continue
		}
		playerID, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		handIndex, err := strconv.Atoi(fields[4])
		if err != nil {
			continue
		}
		hands = append(hands, handLine{
			playerID:  playerID,
			handIndex: handIndex,
			cards:     fields[5:],
		})
	}
	return hands
}

// renderTable draws the dealer's hand across the top and each player's
// hands below, highlighting our own seat and the seat holding the turn.
func renderTable(status string, mySeat, turn int) {
	hands := parseStatus(status)
	if len(hands) == 0 {
		return
	}

	var dealerPanel pterm.Panel
	playerPanels := make(map[int][]handLine)
	var order []int
	for _, h := range hands {
		if h.playerID == 0 {
			dealerPanel = pterm.Panel{Data: renderHandBox("Dealer", h.cards, false)}
			continue
		}
		if _, seen := playerPanels[h.playerID]; !seen {
			order = append(order, h.playerID)
		}
		playerPanels[h.playerID] = append(playerPanels[h.playerID], h)
	}

	var seatRow []pterm.Panel
	for _, id := range order {
		title := "Player " + strconv.Itoa(id)
		if id == mySeat {
			title = pterm.LightCyan(title + " (you)")
		}
		if id == turn {
			title += pterm.LightYellow(" *")
		}
		for _, h := range playerPanels[id] {
			boxTitle := title
			if len(playerPanels[id]) > 1 {
				boxTitle += " hand " + strconv.Itoa(h.handIndex+1)
			}
			seatRow = append(seatRow, pterm.Panel{Data: renderHandBox(boxTitle, h.cards, id == mySeat)})
		}
	}

	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{dealerPanel},
		seatRow,
	}).Render()
}

func renderHandBox(title string, cards []string, main bool) string {
	hpadding := 4
	if main {
		hpadding = 6
	}
	pbox := pterm.DefaultBox.WithLeftPadding(hpadding).WithRightPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)

	rendered := make([]string, len(cards))
	for i, code := range cards {
		rendered[i] = renderCard(code)
	}
	return pbox.WithTitle(title).WithTitleTopLeft().Sprint(strings.Join(rendered, " "))
}

// renderCard colors a two-character card code by suit.
func renderCard(code string) string {
	if len(code) != 2 {
		return code
	}
	rank := string(code[0])
	switch code[1] {
	case 'H':
		return pterm.LightRed(rank + "♥")
	case 'D':
		return pterm.LightRed(rank + "♦")
	case 'C':
		return pterm.Black(rank + "♣")
	case 'S':
		return pterm.Black(rank + "♠")
	}
	return code
}

// printResults reports the settled round: one line per hand plus the
// new balance.
func printResults(outcomes []int, credits int, note string) {
	for i, outcome := range outcomes {
		label := "hand " + strconv.Itoa(i+1) + ": "
		switch outcome {
		case 1:
			pterm.Success.Println(label + "won")
		case -1:
			pterm.Error.Println(label + "lost")
		case 2:
			pterm.Info.Println(label + "push")
		default:
			pterm.Info.Println(label + "no result")
		}
	}
	pterm.Info.Printfln("credits: %d", credits)
	if note != "" {
		pterm.Warning.Println(note)
	}
}
