package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scorpion00100/crealith/internal/domain"
	pkgkafka "github.com/scorpion00100/crealith/pkg/kafka"
	"github.com/scorpion00100/crealith/pkg/logger"
)

// Kafka topics for auth domain events. The notification service consumes
// these to send verification and reset emails.
var (
	TopicUserRegistered    = pkgkafka.Topic("user", "registered")
	TopicUserPasswordReset = pkgkafka.Topic("user", "password-reset")
	TopicUserEmailVerified = pkgkafka.Topic("user", "email-verified")
	TopicSessionRevoked    = pkgkafka.Topic("session", "revoked")
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the auth service.
const SourceAuthService = "crealith-auth"

// UserRegisteredData is the payload for a user.registered event. VerifyToken
// lets the notification service build the confirmation link.
type UserRegisteredData struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	VerifyToken string `json:"verify_token"`
}

// UserPasswordResetData is the payload for a user.password-reset event.
type UserPasswordResetData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// UserEmailVerifiedData is the payload for a user.email-verified event.
type UserEmailVerifiedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SessionRevokedData is the payload for a session.revoked event, emitted on
// logout-everywhere so downstream services can drop cached authorizations.
type SessionRevokedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// publish wraps the payload in the shared envelope, stamping the request's
// correlation ID so notification-side logs link back to the gateway request.
func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User, verifyToken string) error {
	data := UserRegisteredData{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		VerifyToken: verifyToken,
	}

	if err := p.publish(ctx, TopicUserRegistered, user.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserPasswordReset publishes a user.password-reset event.
func (p *Producer) PublishUserPasswordReset(ctx context.Context, userID, email, resetToken string) error {
	data := UserPasswordResetData{
		UserID:     userID,
		Email:      email,
		ResetToken: resetToken,
	}

	if err := p.publish(ctx, TopicUserPasswordReset, userID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published user.password-reset event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishUserEmailVerified publishes a user.email-verified event.
func (p *Producer) PublishUserEmailVerified(ctx context.Context, user *domain.User) error {
	data := UserEmailVerifiedData{
		UserID: user.ID,
		Email:  user.Email,
	}

	if err := p.publish(ctx, TopicUserEmailVerified, user.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published user.email-verified event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishSessionRevoked publishes a session.revoked event after a
// logout-everywhere.
func (p *Producer) PublishSessionRevoked(ctx context.Context, userID string) error {
	if err := p.publish(ctx, TopicSessionRevoked, userID, SessionRevokedData{UserID: userID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published session.revoked event",
		slog.String("user_id", userID),
	)

	return nil
}
