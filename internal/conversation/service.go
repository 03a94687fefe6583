// Package conversation implements the stateless request cycle shared by the
// chat front-ends: restore the user's transcript, run one agent turn, save
// the extended transcript and return the reply.
//
// Nothing is kept in process memory between turns. Two concurrent turns for
// the same user both start from the same stored transcript and the later
// save wins.
package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/agent"
	"agent-blueprint/internal/llm"
	"agent-blueprint/internal/state"
	"agent-blueprint/internal/storage"
)

var ErrEmptyPrompt = errors.New("prompt is empty")

// Runner executes one agent turn and returns the messages it added.
type Runner interface {
	Run(ctx context.Context, history []llm.Message, prompt string) ([]llm.Message, error)
}

type Service struct {
	store    state.Store
	runner   Runner
	recorder storage.Recorder
	now      func() time.Time
}

func NewService(store state.Store, runner Runner) *Service {
	return &Service{store: store, runner: runner, now: time.Now}
}

// WithRecorder enables the interaction log.
func (s *Service) WithRecorder(r storage.Recorder) *Service {
	s.recorder = r
	return s
}

// Turn answers prompt for userID. On any failure the stored transcript is
// left as it was.
func (s *Service) Turn(ctx context.Context, userID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	// a client going away must not abort a turn half way
	ctx = context.WithoutCancel(ctx)

	history, err := s.store.Restore(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "restore conversation state")
	}

	added, err := s.runner.Run(ctx, history, prompt)
	if err != nil {
		return "", errors.Wrap(err, "run agent")
	}

	transcript := make([]llm.Message, 0, len(history)+len(added))
	transcript = append(transcript, history...)
	transcript = append(transcript, added...)
	if err := s.store.Save(ctx, userID, transcript); err != nil {
		return "", errors.Wrap(err, "save conversation state")
	}

	reply := agent.Reply(added)
	s.record(userID, prompt, reply, added)
	return reply, nil
}

// Reset replaces the user's transcript with an empty one.
func (s *Service) Reset(ctx context.Context, userID string) error {
	return errors.Wrap(s.store.Save(ctx, userID, nil), "reset conversation state")
}

func (s *Service) record(userID, prompt, reply string, added []llm.Message) {
	if s.recorder == nil {
		return
	}
	var tools []string
	for _, m := range added {
		for _, c := range m.ToolCalls {
			tools = append(tools, c.Name)
		}
	}
	ev := storage.Event{
		Timestamp:         s.now().UTC(),
		UserID:            userID,
		UserMessage:       prompt,
		AssistantResponse: reply,
		ToolCalls:         tools,
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to record interaction")
	}
}
