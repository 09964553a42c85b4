package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/queue"
	"github.com/aldenhq/alden-api/internal/services/ai"
	"go.uber.org/zap"
)

// Responder consumes chat reply jobs and appends assistant messages. The AI
// provider gets one attempt per delivery; rate limit and quota errors are
// re-enqueued with a delay while retries remain, anything else is answered
// with the apology reply so the user is never left without a response.
type Responder struct {
	provider      ai.Provider
	conversations database.ConversationRepositoryInterface
	jobQueue      queue.JobQueue // For re-enqueueing jobs with delays
	logger        *zap.Logger
	aiTimeout     time.Duration
}

// NewResponder creates a new chat reply responder
func NewResponder(
	provider ai.Provider,
	conversations database.ConversationRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
	aiTimeout time.Duration,
) *Responder {
	if aiTimeout <= 0 {
		aiTimeout = ai.DefaultTimeout
	}
	return &Responder{
		provider:      provider,
		conversations: conversations,
		jobQueue:      jobQueue,
		logger:        logger,
		aiTimeout:     aiTimeout,
	}
}

// ProcessJob dispatches a queue message and settles it: ack on success or
// permanent substitution, delayed re-enqueue on retryable failure, DLQ when
// retries are exhausted or the type is unknown.
func (r *Responder) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeChatReply:
		if err := r.ProcessChatReplyJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Error("job_nack_failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// ProcessChatReplyJob generates and appends the assistant reply for a chat
// job. A missing conversation or an already answered message is treated as
// done, not as an error, so redeliveries stay idempotent.
func (r *Responder) ProcessChatReplyJob(ctx context.Context, job *queue.Job) error {
	if job.ConversationID == nil {
		return fmt.Errorf("conversation_id is required for chat reply job")
	}

	conversation, err := r.conversations.GetByID(ctx, *job.ConversationID, job.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Conversation was deleted between enqueue and processing.
			r.logger.Info("chat_reply_conversation_gone",
				zap.String("job_id", job.ID.String()),
				zap.String("conversation_id", job.ConversationID.String()))
			return nil
		}
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	messages, err := r.conversations.ListMessages(ctx, conversation.ID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	prompt, history, ok := splitPrompt(messages)
	if !ok {
		r.logger.Info("chat_reply_already_answered",
			zap.String("job_id", job.ID.String()),
			zap.String("conversation_id", conversation.ID.String()))
		return nil
	}

	subject := ""
	if conversation.Subject != nil {
		subject = *conversation.Subject
	}

	if n := documentRefCount(job); n > 0 {
		prompt = fmt.Sprintf("%s\n\n[The student has uploaded %d document(s) for reference.]", prompt, n)
	}

	aiCtx, cancel := context.WithTimeout(ctx, r.aiTimeout)
	reply, genErr := r.provider.GenerateReply(aiCtx, prompt, subject, history)
	cancel()
	if genErr != nil {
		if (ai.IsRateLimitError(genErr) || ai.IsQuotaError(genErr)) && job.CanRetry() {
			return fmt.Errorf("reply generation throttled: %w", genErr)
		}

		r.logger.Warn("chat_reply_generation_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(genErr))
		reply = ai.ApologyReply
	}

	if _, err := r.conversations.AppendMessage(ctx, conversation.ID, models.MessageTypeAssistant, reply); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}

	r.logger.Info("chat_reply_appended",
		zap.String("job_id", job.ID.String()),
		zap.String("conversation_id", conversation.ID.String()),
		zap.Bool("fallback", genErr != nil))
	return nil
}

// splitPrompt returns the trailing user message and the history before it.
// ok is false when the conversation is empty or the last message already
// came from the assistant.
func splitPrompt(messages []*models.Message) (string, []ai.ChatMessage, bool) {
	if len(messages) == 0 {
		return "", nil, false
	}

	last := messages[len(messages)-1]
	if last.Type != models.MessageTypeUser {
		return "", nil, false
	}

	history := make([]ai.ChatMessage, 0, len(messages)-1)
	for _, message := range messages[:len(messages)-1] {
		role := "user"
		if message.Type == models.MessageTypeAssistant {
			role = "assistant"
		}
		history = append(history, ai.ChatMessage{Role: role, Content: message.Content})
	}
	return last.Content, history, true
}

// documentRefCount reads the document_refs metadata written at enqueue time.
// Metadata round-trips through JSON, so the slice arrives as []any after a
// real delivery but is still []string when processed in-process.
func documentRefCount(job *queue.Job) int {
	switch refs := job.Metadata["document_refs"].(type) {
	case []string:
		return len(refs)
	case []any:
		return len(refs)
	default:
		return 0
	}
}

// handleJobError settles a failed delivery: re-enqueue with a delay while
// retries remain, dead-letter once they run out.
func (r *Responder) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() && r.jobQueue != nil {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayedJob := &queue.Job{
			ID:             job.ID,
			Type:           job.Type,
			UserID:         job.UserID,
			ConversationID: job.ConversationID,
			NotBefore:      &notBefore,
			NotAfter:       job.NotAfter,
			Metadata:       job.Metadata,
			CreatedAt:      job.CreatedAt,
			RetryCount:     job.RetryCount + 1,
			MaxRetries:     job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Error("job_ack_failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(ackErr))
		}

		if enqueueErr := r.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
			return fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, enqueueErr)
		}

		r.logger.Warn("chat_reply_retry_scheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", delayedJob.RetryCount),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err))
		return nil
	}

	if nackErr := msg.Nack(false); nackErr != nil {
		r.logger.Error("job_nack_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(nackErr))
	}
	return fmt.Errorf("chat reply job %s failed permanently: %w", job.ID, err)
}
