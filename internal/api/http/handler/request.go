package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dtroode/chatstation-server/internal/model"
)

const maxRequestBody = 1 << 20

var errInvalidPage = errors.New("invalid page")

// chatRequest holds the fields shared by the chat routes. Clients send them
// either as a JSON object or as form values.
type chatRequest struct {
	Email   string
	Message string
	Page    int
}

type jsonChatRequest struct {
	Email   string          `json:"email"`
	Message string          `json:"message"`
	Page    json.RawMessage `json:"page"`
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body jsonChatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return chatRequest{}, fmt.Errorf("failed to decode request body: %w", err)
		}
		page, err := parsePage(strings.Trim(string(body.Page), `"`))
		if err != nil {
			return chatRequest{}, err
		}
		return chatRequest{Email: body.Email, Message: body.Message, Page: page}, nil
	}

	page, err := parsePage(r.FormValue("page"))
	if err != nil {
		return chatRequest{}, err
	}
	return chatRequest{
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
		Page:    page,
	}, nil
}

// parsePage treats a missing page as the first page.
func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 || page > model.MaxPage {
		return 0, errInvalidPage
	}
	return page, nil
}
