// Copyright (C) 2025 SAGE-X Project
//
// This file is part of virgil-cards-go.
//
// virgil-cards-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// virgil-cards-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with virgil-cards-go.  If not, see <https://www.gnu.org/licenses/>.

package protocol

// LinkCards collapses a search result into rotation chains.
//
// Every card whose PreviousCardID names another card of the batch takes that
// card as PreviousCard, and the replaced card is marked outdated and dropped
// from the top level. The heads of the chains are returned in input order.
// References to cards outside the batch are left dangling, and repeated
// cards (same ID) are kept once, at their first position.
//
// The input cards are not modified; the result is built from copies.
func LinkCards(cards []*Card) []*Card {
	copies := make([]*Card, 0, len(cards))
	byID := make(map[string]*Card, len(cards))
	for _, card := range cards {
		if card == nil {
			continue
		}
		if _, seen := byID[card.ID]; seen {
			continue
		}
		c := *card
		c.PreviousCard = nil
		copies = append(copies, &c)
		byID[c.ID] = &c
	}

	replaced := make(map[*Card]bool)
	for _, card := range copies {
		if card.PreviousCardID == "" {
			continue
		}
		previous, ok := byID[card.PreviousCardID]
		if !ok || previous == card {
			continue
		}
		previous.IsOutdated = true
		card.PreviousCard = previous
		replaced[previous] = true
	}

	heads := make([]*Card, 0, len(copies))
	for _, card := range copies {
		if !replaced[card] {
			heads = append(heads, card)
		}
	}
	return heads
}
