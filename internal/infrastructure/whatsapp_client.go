package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/SoulxxMerchant/New/internal/entities"
	"github.com/SoulxxMerchant/New/internal/interfaces"
)

// Listing calls are bounded; the original capped dialog enumeration at 1000.
const maxTargets = 1000

// waSession is one connected WhatsApp account. It satisfies
// interfaces.DeliverySession.
type waSession struct {
	client *whatsmeow.Client
}

func (s *waSession) Name() string {
	if id := s.client.Store.ID; id != nil {
		return "+" + id.User
	}
	return "unknown"
}

// ListTargets enumerates the group conversations this account is a member
// of, capped at maxTargets.
func (s *waSession) ListTargets(ctx context.Context) ([]interfaces.Target, error) {
	groups, err := s.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list joined groups: %w", err)
	}

	targets := make([]interfaces.Target, 0, len(groups))
	for _, g := range groups {
		targets = append(targets, interfaces.Target{
			ID:    g.JID.String(),
			Title: g.Name,
		})
		if len(targets) >= maxTargets {
			break
		}
	}
	return targets, nil
}

func (s *waSession) Send(ctx context.Context, target interfaces.Target, text string) error {
	jid, err := types.ParseJID(target.ID)
	if err != nil {
		return fmt.Errorf("invalid target %q: %v", target.ID, err)
	}

	_, err = s.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &text,
	})
	if err != nil && errors.Is(err, whatsmeow.ErrIQRateOverLimit) {
		return &entities.RateLimitError{Err: err}
	}
	return err
}

func (s *waSession) Close() {
	s.client.Disconnect()
}
