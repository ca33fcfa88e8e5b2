// Package calendar mirrors reminders into the user's Google Calendar.
// The mirror is best-effort: a user without linked credentials, or any
// API failure, simply means no calendar copy.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"remindbot/internal/models"
	"remindbot/internal/repository"
)

// ErrNotLinked means the user never finished the OAuth flow.
var ErrNotLinked = errors.New("google calendar not linked")

type Service struct {
	log   zerolog.Logger
	oauth *oauth2.Config
	creds *repository.CredentialsRepository
}

func New(log zerolog.Logger, clientID, clientSecret, redirectURL string,
	creds *repository.CredentialsRepository) *Service {
	return &Service{
		log: log.With().Str("component", "calendar").Logger(),
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendarapi.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		creds: creds,
	}
}

// AuthURL builds the consent URL for a user. The chat id rides in the
// state parameter so the callback knows whose account to link.
func (s *Service) AuthURL(chatID int64) string {
	state := fmt.Sprintf("%d", chatID)
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code and stores the token
// against the chat id carried in state.
func (s *Service) HandleCallback(ctx context.Context, state, code string) error {
	var chatID int64
	if _, err := fmt.Sscanf(state, "%d", &chatID); err != nil {
		return fmt.Errorf("malformed state: %w", err)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	if err := s.creds.Upsert(ctx, credentialsFromToken(chatID, token)); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	s.log.Info().Int64("chat_id", chatID).Msg("google calendar linked")
	return nil
}

// credentialsFromToken maps an exchanged OAuth token onto the stored
// credentials row. Events mirror into the user's primary calendar.
func credentialsFromToken(chatID int64, token *oauth2.Token) *models.GoogleCredentials {
	creds := &models.GoogleCredentials{
		ChatID:       chatID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		CalendarID:   "primary",
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		creds.ExpiresAt = &expiry
	}
	return creds
}

// Linked reports whether the user has stored credentials.
func (s *Service) Linked(ctx context.Context, chatID int64) bool {
	_, err := s.creds.GetByChatID(ctx, chatID)
	return err == nil
}

// UpsertEvent creates a calendar event mirroring the reminder and
// returns its calendar id. Recurring reminders carry their RRULE so the
// calendar expands occurrences itself.
func (s *Service) UpsertEvent(ctx context.Context, chatID int64, name, description string,
	start time.Time, timezone, rrule string) (string, error) {
	svc, err := s.clientFor(ctx, chatID)
	if err != nil {
		return "", err
	}

	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}
	local := start.In(loc)

	event := &calendarapi.Event{
		Summary:     name,
		Description: description,
		Start: &calendarapi.EventDateTime{
			DateTime: local.Format(time.RFC3339),
			TimeZone: timezone,
		},
		End: &calendarapi.EventDateTime{
			DateTime: local.Add(30 * time.Minute).Format(time.RFC3339),
			TimeZone: timezone,
		},
		Reminders: &calendarapi.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if rrule != "" {
		event.Recurrence = []string{"RRULE:" + strings.TrimPrefix(rrule, "RRULE:")}
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes a mirrored event. A missing event is not an error;
// the user may have deleted it from the calendar side.
func (s *Service) DeleteEvent(ctx context.Context, chatID int64, calendarEventID string) error {
	svc, err := s.clientFor(ctx, chatID)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", calendarEventID).Context(ctx).Do(); err != nil {
		s.log.Debug().Err(err).Str("calendar_event_id", calendarEventID).Msg("calendar delete failed")
	}
	return nil
}

// clientFor builds a calendar client backed by the user's stored token.
// A stored token that has not expired is used as-is; otherwise the
// oauth2 token source refreshes it and the fresh token is written back
// so the next client starts fresh.
func (s *Service) clientFor(ctx context.Context, chatID int64) (*calendarapi.Service, error) {
	stored, err := s.creds.GetByChatID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotLinked
	}
	if err != nil {
		return nil, err
	}

	if stored.AccessToken != "" && !stored.Expired(time.Now().UTC()) {
		svc, err := calendarapi.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: stored.AccessToken,
		})))
		if err != nil {
			return nil, fmt.Errorf("failed to build calendar client: %w", err)
		}
		return svc, nil
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	}
	if stored.ExpiresAt != nil {
		token.Expiry = *stored.ExpiresAt
	}

	source := s.oauth.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		expiry := fresh.Expiry.UTC()
		if err := s.creds.UpdateAccessToken(ctx, chatID, fresh.AccessToken, &expiry); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to persist refreshed token")
		}
	}

	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(fresh)))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}
	return svc, nil
}
