package projection

import "pulljoker/src/core/domain"

// Project maps events, in order, to the envelopes that publish them.
func Project(events []domain.Event) ([]Envelope, error) {
	var out []Envelope
	for _, ev := range events {
		envs, err := project(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, envs...)
	}
	return out, nil
}

func project(ev domain.Event) ([]Envelope, error) {
	switch d := ev.Data.(type) {
	case domain.RoomCreated:
		// Nobody can be subscribed to a room that did not exist.
		return nil, nil

	case domain.PlayerJoinedRoom:
		return room(d.GameID, TypePlayerJoinedRoom, PlayerJoinedRoomData{GameID: d.GameID, Player: d.Player}), nil

	case domain.PlayerLeftRoom:
		return room(d.GameID, TypePlayerLeftRoom, PlayerLeftRoomData{GameID: d.GameID, Player: d.Player}), nil

	case domain.GameStarted:
		return room(d.GameID, TypeGameStarted, GameStartedData{
			GameID:  d.GameID,
			Round:   d.Round,
			Players: d.Players,
			Status:  d.Status,
		}), nil

	case domain.CardDealt:
		owners := make([]string, len(d.Players))
		for i, p := range d.Players {
			owners[i] = p.ID
		}
		return redacted(d.GameID, TypeCardDealt, owners, func(viewer string) any {
			players := make([]PlayerView, len(d.Players))
			for i, p := range d.Players {
				players[i] = playerView(viewer, p.PlayerRef, p.Hand)
			}
			return CardDealtData{
				GameID: d.GameID,
				Round:  d.Round,
				// Undealt cards are face down.
				Deck:          DeckView{Cards: []domain.Card{}},
				Players:       players,
				CurrentPlayer: d.CurrentPlayer,
				NextPlayer:    d.NextPlayer,
			}
		}), nil

	case domain.CardPlayed:
		return redacted(d.GameID, TypeCardPlayed, []string{d.Player.ID}, func(viewer string) any {
			return CardPlayedData{
				GameID: d.GameID,
				Player: playerView(viewer, d.Player.PlayerRef, d.Player.Hand),
				Cards:  d.Cards,
			}
		}), nil

	case domain.CardDrawn:
		involved := []string{d.FromPlayer.ID, d.ToPlayer.ID}
		return redacted(d.GameID, TypeCardDrawn, involved, func(viewer string) any {
			data := CardDrawnData{
				CardIndex:  d.CardIndex,
				FromPlayer: playerView(viewer, d.FromPlayer.PlayerRef, d.FromPlayer.Hand),
				ToPlayer:   playerView(viewer, d.ToPlayer.PlayerRef, d.ToPlayer.Hand),
			}
			if viewer == d.FromPlayer.ID || viewer == d.ToPlayer.ID {
				card := d.Card
				data.Card = &card
			}
			return data
		}), nil

	case domain.HandsCompleted:
		return room(d.GameID, TypeHandsCompleted, HandsCompletedData{
			GameID:   d.GameID,
			PlayerID: d.Player.ID,
			Ranking:  d.Ranking,
		}), nil

	case domain.GameEnded:
		return room(d.GameID, TypeGameEnded, GameEndedData{
			ID:      d.GameID,
			Status:  d.Status,
			Ranking: d.Ranking,
		}), nil

	default:
		return nil, domain.NewError(domain.ErrUnknownEventType, "%T", ev.Data)
	}
}

// Snapshot is the state of the game as viewer may see it.
func Snapshot(s domain.GameState, viewer string) GameSnapshotData {
	snap := GameSnapshotData{
		ID:      s.ID,
		Status:  s.Status,
		Players: make([]PlayerView, len(s.Players)),
	}
	for i, p := range s.Players {
		if s.Dealt {
			snap.Players[i] = playerView(viewer, p.Ref(), p.Hand)
		} else {
			snap.Players[i] = PlayerView{ID: p.ID, Name: p.Name}
		}
	}
	if !s.Dealt {
		return snap
	}

	round := s.Round
	snap.Round = &round
	snap.Deck = &DeckView{Cards: append([]domain.Card{}, s.Discard...)}
	if p, ok := s.CurrentPlayer(); ok {
		ref := p.Ref()
		snap.CurrentPlayer = &ref
	}
	if p, ok := s.NextPlayer(); ok {
		ref := p.Ref()
		snap.NextPlayer = &ref
	}
	return snap
}

// SnapshotEnvelopes addresses a snapshot to every seated player and a
// hand-less one to everyone else in the room.
func SnapshotEnvelopes(s domain.GameState) []Envelope {
	seated := make([]string, len(s.Players))
	for i, p := range s.Players {
		seated[i] = p.ID
	}
	return redacted(s.ID, TypeGetGameResult, seated, func(viewer string) any {
		return Snapshot(s, viewer)
	})
}

func playerView(viewer string, owner domain.PlayerRef, hand domain.Hand) PlayerView {
	view := &HandView{CardCount: len(hand)}
	if viewer == owner.ID {
		view.Cards = append([]domain.Card{}, hand...)
	}
	return PlayerView{ID: owner.ID, Name: owner.Name, Hands: view}
}

func room(gameID, typ string, data any) []Envelope {
	return []Envelope{{GameID: gameID, Message: Message{Type: typ, Data: data}}}
}

// redacted builds one envelope per owner, seen through that owner's eyes,
// and one for the rest of the room seen by nobody in particular.
func redacted(gameID, typ string, owners []string, build func(viewer string) any) []Envelope {
	out := make([]Envelope, 0, len(owners)+1)
	for _, id := range owners {
		out = append(out, Envelope{
			GameID:    gameID,
			Recipient: id,
			Message:   Message{Type: typ, Data: build(id)},
		})
	}
	return append(out, Envelope{
		GameID:  gameID,
		Except:  append([]string{}, owners...),
		Message: Message{Type: typ, Data: build("")},
	})
}
