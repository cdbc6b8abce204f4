package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

const (
	DefaultAnkiConnectURL = "http://localhost:8765"
	BasicModelName        = "Basic"
)

// ErrUnreachable wraps transport failures: AnkiConnect is not listening,
// so every further request in the batch would fail the same way.
var ErrUnreachable = errors.New("could not connect to AnkiConnect")

// ActionError is an error string reported by AnkiConnect for one action.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("anki error on %s: %s", e.Action, e.Message)
}

type Service struct {
	ankiConnectURL string
	httpClient     *http.Client
	logger         *logger.Logger
}

type AnkiConnectRequest struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

type Note struct {
	DeckName  string                 `json:"deckName"`
	ModelName string                 `json:"modelName"`
	Fields    map[string]string      `json:"fields"`
	Options   map[string]interface{} `json:"options,omitempty"`
	Tags      []string               `json:"tags"`
}

type ServiceOption func(*Service)

func WithURL(url string) ServiceOption {
	return func(s *Service) {
		s.ankiConnectURL = url
	}
}

func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = client
	}
}

func NewService(logger *logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		ankiConnectURL: DefaultAnkiConnectURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewNote builds a note for the two-field Basic-style model.
func NewNote(deckName, modelName string, card models.Flashcard) Note {
	return Note{
		DeckName:  deckName,
		ModelName: modelName,
		Fields: map[string]string{
			"Front": card.Front,
			"Back":  card.Back,
		},
		Tags: card.Tags,
	}
}

func (s *Service) Version(ctx context.Context) (int, error) {
	result, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "version",
		Version: ANKI_CONNECT_VERSION,
	})
	if err != nil {
		return 0, err
	}

	var v int
	if err := json.Unmarshal(result, &v); err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}
	return v, nil
}

func (s *Service) CheckConnection(ctx context.Context) error {
	v, err := s.Version(ctx)
	if err != nil {
		s.logger.Debug("Error sending request to Anki: %v", err)
		return fmt.Errorf("could not connect to Anki. Please ensure:\n"+
			"1. Anki is running https://apps.ankiweb.net/#download\n"+
			"2. AnkiConnect add-on is installed (code: 2055492159) https://ankiweb.net/shared/info/2055492159\n"+
			"3. Anki has been restarted after installing AnkiConnect: %w", err)
	}

	s.logger.Debug("AnkiConnect API version %d", v)
	return nil
}

func (s *Service) CreateDeck(ctx context.Context, deckName string) error {
	s.logger.Debug("Creating deck: %s", deckName)
	_, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "createDeck",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]string{
			"deck": deckName,
		},
	})
	return err
}

// AddNote submits one note and returns the id Anki assigned to it.
func (s *Service) AddNote(ctx context.Context, note Note) (int64, error) {
	result, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "addNote",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]interface{}{
			"note": note,
		},
	})
	if err != nil {
		return 0, err
	}

	var noteID int64
	if err := json.Unmarshal(result, &noteID); err != nil {
		return 0, fmt.Errorf("failed to parse note id: %w", err)
	}
	return noteID, nil
}

// AddFlashcards submits cards one by one. Cards Anki rejects are logged and
// counted; an unreachable AnkiConnect stops the batch and is returned.
func (s *Service) AddFlashcards(ctx context.Context, deckName, modelName string, cards []models.Flashcard) (int, error) {
	var added, failed int

	for _, card := range cards {
		if _, err := s.AddNote(ctx, NewNote(deckName, modelName, card)); err != nil {
			if errors.Is(err, ErrUnreachable) {
				return added, err
			}
			s.logger.Info("Error adding note: %v", err)
			failed++
			continue
		}
		added++
	}

	if failed > 0 {
		return added, fmt.Errorf("failed to add %d out of %d flashcards", failed, len(cards))
	}

	s.logger.Debug("Successfully added %d flashcards", added)
	return added, nil
}

// Sync asks Anki to synchronise the collection with AnkiWeb.
func (s *Service) Sync(ctx context.Context) error {
	_, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "sync",
		Version: ANKI_CONNECT_VERSION,
	})
	return err
}

func (s *Service) sendRequest(ctx context.Context, req AnkiConnectRequest) (json.RawMessage, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ankiConnectURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	s.logger.Trace("AnkiConnect request: %s", reqBody)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Error  *string         `json:"error"`
		Result json.RawMessage `json:"result"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != nil {
		return nil, &ActionError{Action: req.Action, Message: *result.Error}
	}

	return result.Result, nil
}
