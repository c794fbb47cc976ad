package service

import (
	"context"
	"fmt"

	"doc-support-be/internal/dto"
	"doc-support-be/internal/pkg/logger"
	"doc-support-be/internal/repository/contract"
	"doc-support-be/pkg/dialogue"
	"doc-support-be/pkg/notify"
	"doc-support-be/pkg/store"
)

const apologySpeech = "Sorry, I had trouble doing what you asked. Please try again."

type IAssistantService interface {
	HandleTurn(ctx context.Context, req *dto.TurnRequest) (*dto.TurnResponse, error)
	ConfirmSubscription(ctx context.Context, subscriptionID string) error
}

type assistantService struct {
	machine     *dialogue.Machine
	sessionRepo contract.SessionRepository
	broker      notify.Broker
	logger      logger.ILogger
}

func NewAssistantService(
	machine *dialogue.Machine,
	sessionRepo contract.SessionRepository,
	broker notify.Broker,
	sysLogger logger.ILogger,
) IAssistantService {
	return &assistantService{
		machine:     machine,
		sessionRepo: sessionRepo,
		broker:      broker,
		logger:      sysLogger,
	}
}

// HandleTurn runs one utterance through the dialogue machine. The machine
// works on a clone of the session; the clone is persisted only when the
// turn succeeds, so a failed turn leaves the session exactly as it was.
func (s *assistantService) HandleTurn(ctx context.Context, req *dto.TurnRequest) (resp *dto.TurnResponse, err error) {
	session, found := s.sessionRepo.Get(req.SessionID)
	if !found {
		session = store.NewSession(req.SessionID, req.UserID)
	}
	working := session.Clone()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("assistant", "Panic during turn", map[string]interface{}{
				"session_id": req.SessionID,
				"panic":      fmt.Sprintf("%v", r),
			})
			resp = &dto.TurnResponse{Speech: apologySpeech, Reprompt: apologySpeech}
			err = nil
		}
	}()

	turn := dialogue.Turn{
		RequestType: req.RequestType,
		Intent:      req.IntentName,
		Slots:       req.Slots,
	}

	outcome, turnErr := s.machine.HandleTurn(ctx, working, turn)
	if turnErr != nil {
		// Catch-all for the turn boundary: log, apologize, keep the
		// previous session so the user can retry.
		s.logger.Error("assistant", "Turn failed", map[string]interface{}{
			"session_id": req.SessionID,
			"intent":     req.IntentName,
			"error":      turnErr.Error(),
		})
		return &dto.TurnResponse{Speech: apologySpeech, Reprompt: apologySpeech}, nil
	}

	if req.RequestType == dialogue.RequestSessionEnded {
		s.sessionRepo.Delete(req.SessionID)
	} else {
		s.sessionRepo.Save(working)
	}

	return &dto.TurnResponse{
		Speech:          outcome.Speech,
		Reprompt:        outcome.Reprompt,
		EndSession:      outcome.EndSession,
		NeedPermissions: outcome.NeedPermissions,
	}, nil
}

// ConfirmSubscription handles the out-of-band confirmation callback from
// the emailed link.
func (s *assistantService) ConfirmSubscription(ctx context.Context, subscriptionID string) error {
	if err := s.broker.Confirm(ctx, subscriptionID); err != nil {
		return fmt.Errorf("confirm subscription %s: %w", subscriptionID, err)
	}
	s.logger.Info("assistant", "Subscription confirmed", map[string]interface{}{
		"subscription_id": subscriptionID,
	})
	return nil
}
