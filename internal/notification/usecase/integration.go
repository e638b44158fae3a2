package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
)

type UpsertIntegrationInput struct {
	Provider string         `validate:"required,oneof=email slack"`
	IsActive bool           `json:"is_active"`
	Config   map[string]any `json:"config"`
}

// UpsertIntegration stores the settings of a provider and applies them right
// away.
func (s *Usecase) UpsertIntegration(ctx context.Context, in UpsertIntegrationInput) error {
	ctx, span := s.startSpan(ctx, "UpsertIntegration")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cfg := valueobject.JSONMap(in.Config)
	if in.IsActive {
		switch entity.IntegrationProvider(in.Provider) {
		case entity.IntegrationProviderEmail:
			if cfg.GetString("from") == "" {
				return goerror.NewInvalidInput(nil, "config.from", "from is required when the integration is active")
			}
		case entity.IntegrationProviderSlack:
			if cfg.GetString("bot_token") == "" {
				return goerror.NewInvalidInput(nil, "config.bot_token", "bot_token is required when the integration is active")
			}
		}
	}

	err = s.repoDB.UpsertIntegration(ctx, entity.Integration{
		Provider:  entity.IntegrationProvider(in.Provider),
		IsActive:  in.IsActive,
		Config:    cfg,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert integration", "provider", in.Provider, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "integration updated", "provider", in.Provider, "active", in.IsActive, "admin_id", clm.UserID)

	return s.ReconfigureChannels(ctx)
}

// ReconfigureChannels reads the integration rows and pushes the result into
// the email and chat senders. A missing row falls back to the static config.
func (s *Usecase) ReconfigureChannels(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "ReconfigureChannels")
	defer span.End()

	emailRow, err := s.integration(ctx, entity.IntegrationProviderEmail)
	if err != nil {
		return goerror.NewServer(err)
	}
	slackRow, err := s.integration(ctx, entity.IntegrationProviderSlack)
	if err != nil {
		return goerror.NewServer(err)
	}

	emailCfg := entity.EmailSettings{
		Enabled: s.cfgString("mail.from") != "",
		From:    s.cfgString("mail.from"),
		AppURL:  s.cfgString("app.web_url"),
	}
	if emailRow != nil {
		emailCfg.Enabled = emailRow.IsActive
		if from := emailRow.Config.GetString("from"); from != "" {
			emailCfg.From = from
		}
		if appURL := emailRow.Config.GetString("app_url"); appURL != "" {
			emailCfg.AppURL = appURL
		}
	}

	chatCfg := entity.ChatSettings{
		BotToken: s.cfgString("chat.slack.bot_token"),
		AppURL:   emailCfg.AppURL,
	}
	secret := s.cfgString("chat.slack.signing_secret")
	if slackRow != nil {
		chatCfg.BotToken = ""
		secret = ""
		if slackRow.IsActive {
			chatCfg.BotToken = slackRow.Config.GetString("bot_token")
			secret = slackRow.Config.GetString("signing_secret")
		}
	}

	s.email.Configure(emailCfg)
	s.chat.Configure(chatCfg)
	s.signingSecret.Store(secret)

	slog.InfoContext(ctx, "notification channels configured", "email_enabled", emailCfg.Enabled, "chat_enabled", chatCfg.BotToken != "")

	return nil
}

func (s *Usecase) integration(ctx context.Context, provider entity.IntegrationProvider) (*entity.Integration, error) {
	row, err := s.repoDB.GetIntegration(ctx, provider)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get integration", "provider", provider.String(), "error", err)
		return nil, err
	}
	return row, nil
}

func (s *Usecase) cfgString(key string) string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.GetString(key)
}

// TestChatConnection checks the configured bot token against the chat
// platform.
func (s *Usecase) TestChatConnection(ctx context.Context) (_ *entity.ChatConnection, err error) {
	ctx, span := s.startSpan(ctx, "TestChatConnection")
	defer span.End()

	if !s.chat.Enabled() {
		return nil, goerror.NewBusiness("chat integration is not configured", goerror.CodeNotFound)
	}

	conn, err := s.chat.TestConnection(ctx)
	if err != nil {
		slog.WarnContext(ctx, "chat connection test failed", "error", err)
		return nil, goerror.NewBusiness("chat connection failed: "+err.Error(), goerror.CodeInvalidInput)
	}

	return &conn, nil
}
