package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SubmitChatRequest accepts both the JSON names and the form names used by
// the chat widget (email, message).
type SubmitChatRequest struct {
	SenderID string `json:"senderId"`
	Body     string `json:"body"`
}

type ChatMessageResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}

func newChatMessageResponse(m *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID.String(),
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.History(r.Context())
	if err != nil {
		writeError(w, r, "chat.History", err)
		return
	}

	resp := ChatHistoryResponse{Messages: make([]ChatMessageResponse, len(messages))}
	for i, m := range messages {
		resp.Messages[i] = newChatMessageResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Submit stores and broadcasts a chat message. Form posts are redirected
// back to the history with the one-shot clear flag; JSON callers get the
// stored message.
func (h *ChatHandler) Submit(w http.ResponseWriter, r *http.Request) {
	isForm := isFormRequest(r)

	var req SubmitChatRequest
	if isForm {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form body", http.StatusBadRequest)
			return
		}
		req.SenderID = firstNonEmpty(r.PostForm.Get("senderId"), r.PostForm.Get("email"))
		req.Body = firstNonEmpty(r.PostForm.Get("body"), r.PostForm.Get("message"))
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.Submit(r.Context(), req.SenderID, req.Body)
	if err != nil {
		writeError(w, r, "chat.Submit", err)
		return
	}

	if isForm {
		http.Redirect(w, r, r.URL.Path+"?clear=true", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, newChatMessageResponse(msg))
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
