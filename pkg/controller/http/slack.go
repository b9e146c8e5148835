package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/utils/async"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	"github.com/secmon-lab/mergeminder/pkg/utils/safe"
	"github.com/slack-go/slack/slackevents"
)

// verifySlackSignature verifies the Slack request signature. Pure function so
// it can be tested independently.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}
	if signature == "" {
		return goerr.New("missing signature")
	}

	// reject replayed requests
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}
	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware verifies the Slack request signature before the
// webhook handler runs.
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewBuffer(body))
			next.ServeHTTP(w, r)
		})
	}
}

// slackEvent handles Slack Events API webhook requests, routing direct
// messages into the conversation manager.
func (s *Server) slackEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		// respond within Slack's 3-second deadline, process in the background
		w.WriteHeader(http.StatusOK)

		async.Dispatch(ctx, func(ctx context.Context) error {
			return s.handleCallbackEvent(ctx, &event)
		})

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleCallbackEvent(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logging.From(ctx).Debug("ignoring non-message event",
			"inner_type", event.InnerEvent.Type)
		return nil
	}

	// only direct messages from humans drive conversations
	if msg.ChannelType != "im" || msg.BotID != "" || msg.User == "" {
		return nil
	}

	userID := types.SlackUserID(msg.User)

	var email string
	profile, err := s.uc.SlackService().GetUserByID(ctx, userID)
	if err != nil {
		return goerr.Wrap(err, "failed to look up message sender", goerr.V("user_id", userID))
	}
	if profile != nil {
		email = profile.Email
	}

	reply := s.convManager.HandleMessage(ctx, userID, email, msg.Text)
	if reply == "" {
		return nil
	}

	return s.uc.SlackService().PostDirectMessage(ctx, userID, reply)
}
