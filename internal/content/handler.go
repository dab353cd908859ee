package content

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/transport"
)

type ServiceAPI interface {
	GetCategories() ([]CategoryResponse, error)
	GetTopics(categoryID int64) ([]TopicResponse, error)
	GetArticles(topicID int64) ([]ArticleSummary, error)
	GetArticle(ctx context.Context, userID int64, articleID int64) (*ArticleResponse, error)
	Suggest(query string) ([]TopicResponse, error)
	CreateTopic(req CreateTopicRequest) (*TopicResponse, error)
	UpdateTopic(id int64, req UpdateTopicRequest) (*TopicResponse, error)
	DeleteTopic(id int64) error
	CreateArticle(req CreateArticleRequest) (*ArticleResponse, error)
	UpdateArticle(id int64, req UpdateArticleRequest) (*ArticleResponse, error)
	DeleteArticle(id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetCategories()
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get categories")
		return
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: categories,
	})
}

func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	topics, err := h.Service.GetTopics(categoryID)
	if err != nil {
		h.Logger.Error("GetTopics: failed to get topics", "error", err, "category_id", categoryID)
		h.WriteError(w, http.StatusInternalServerError, "failed to get topics")
		return
	}

	h.WriteJSON(w, http.StatusOK, TopicsResponse{Topics: topics})
}

func (h *Handler) GetArticles(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topicID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	articles, err := h.Service.GetArticles(topicID)
	if err != nil {
		h.Logger.Error("GetArticles: failed to get articles", "error", err, "topic_id", topicID)
		h.WriteError(w, http.StatusInternalServerError, "failed to get articles")
		return
	}

	h.WriteJSON(w, http.StatusOK, ArticlesResponse{Articles: articles})
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := errors.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	articleID, err := pathID(r, "articleID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, svcErr := h.Service.GetArticle(r.Context(), user.ID, articleID)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	suggestions, err := h.Service.Suggest(query)
	if err != nil {
		h.Logger.Error("Suggest: suggestion query failed", "error", err, "query", query)
		h.WriteError(w, http.StatusInternalServerError, "failed to get suggestions")
		return
	}

	h.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	topic, err := h.Service.CreateTopic(req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, topic)
}

func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "topicID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	var req UpdateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	topic, svcErr := h.Service.UpdateTopic(id, req)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, topic)
}

func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "topicID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	if err := h.Service.DeleteTopic(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.Service.CreateArticle(req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, article)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "articleID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	var req UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, svcErr := h.Service.UpdateArticle(id, req)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "articleID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	if err := h.Service.DeleteArticle(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
