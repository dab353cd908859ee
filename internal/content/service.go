package content

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/core/common/validation"
	contentDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/content"
	"github.com/mechmaster/subscription-management/internal/subscription"
)

const suggestionLimit = 10

type RepositoryAPI interface {
	GetAllCategories() ([]*contentDatamodel.Category, error)
	GetTopicsByCategory(categoryID int64) ([]*contentDatamodel.Topic, error)
	GetTopicByID(id int64) (*contentDatamodel.Topic, error)
	CreateTopic(topic *contentDatamodel.Topic) error
	UpdateTopic(topic *contentDatamodel.Topic) error
	DeleteTopic(id int64) error
	GetArticlesByTopic(topicID int64) ([]*contentDatamodel.Article, error)
	GetArticleByID(id int64) (*contentDatamodel.Article, error)
	CreateArticle(article *contentDatamodel.Article) error
	UpdateArticle(article *contentDatamodel.Article) error
	DeleteArticle(id int64) error
	SearchTopicsByPrefix(prefix string, limit int) ([]*contentDatamodel.Topic, error)
}

// EntitlementAPI answers whether a user currently holds an active
// subscription. Satisfied by the subscription service.
type EntitlementAPI interface {
	GetSubscription(ctx context.Context, userID int64) (*subscription.UserSubscription, error)
}

type Service struct {
	repo        RepositoryAPI
	entitlement EntitlementAPI
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo RepositoryAPI, entitlement EntitlementAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		entitlement: entitlement,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) GetCategories() ([]CategoryResponse, error) {
	dataCategories, err := s.repo.GetAllCategories()
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	var responses []CategoryResponse
	for _, dataCategory := range dataCategories {
		domainCategory := CategoryFromDataModel(dataCategory)
		if domainCategory.IsActiveCategory() {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	return responses, nil
}

func (s *Service) GetTopics(categoryID int64) ([]TopicResponse, error) {
	dataTopics, err := s.repo.GetTopicsByCategory(categoryID)
	if err != nil {
		s.logger.Error("failed to get topics from repository", "error", err, "category_id", categoryID)
		return nil, err
	}

	var responses []TopicResponse
	for _, dataTopic := range dataTopics {
		topic := TopicFromDataModel(dataTopic)
		if topic.IsActive {
			responses = append(responses, topic.ToResponse())
		}
	}

	return responses, nil
}

// GetArticles lists article titles for a topic. Summaries are public; only
// the body is gated.
func (s *Service) GetArticles(topicID int64) ([]ArticleSummary, error) {
	dataArticles, err := s.repo.GetArticlesByTopic(topicID)
	if err != nil {
		s.logger.Error("failed to get articles from repository", "error", err, "topic_id", topicID)
		return nil, err
	}

	var summaries []ArticleSummary
	for _, dataArticle := range dataArticles {
		article := ArticleFromDataModel(dataArticle)
		if article.IsActive {
			summaries = append(summaries, article.ToSummary())
		}
	}

	return summaries, nil
}

// GetArticle serves the full article body to users with an active
// subscription.
func (s *Service) GetArticle(ctx context.Context, userID int64, articleID int64) (*ArticleResponse, error) {
	sub, err := s.entitlement.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error("failed to check subscription for article access", "error", err, "user_id", userID)
		return nil, err
	}
	if sub == nil || !sub.IsCurrentlyActive(s.now()) {
		s.logger.Info("article access denied: no active subscription",
			"user_id", userID,
			"article_id", articleID)
		return nil, apperrors.ErrSubscriptionRequired
	}

	dataArticle, err := s.repo.GetArticleByID(articleID)
	if err != nil {
		s.logger.Error("failed to get article from repository", "error", err, "article_id", articleID)
		return nil, err
	}
	if dataArticle == nil || !dataArticle.IsActive {
		return nil, apperrors.NewNotFoundError("article not found", apperrors.ErrCodeArticleNotFound)
	}

	response := ArticleFromDataModel(dataArticle).ToResponse()
	return &response, nil
}

// Suggest returns topics whose title starts with the query, for
// search-as-you-type.
func (s *Service) Suggest(query string) ([]TopicResponse, error) {
	if query == "" {
		return nil, nil
	}

	dataTopics, err := s.repo.SearchTopicsByPrefix(query, suggestionLimit)
	if err != nil {
		s.logger.Error("topic suggestion query failed", "error", err, "query", query)
		return nil, err
	}

	var responses []TopicResponse
	for _, dataTopic := range dataTopics {
		topic := TopicFromDataModel(dataTopic)
		if topic.IsActive {
			responses = append(responses, topic.ToResponse())
		}
	}

	return responses, nil
}

func (s *Service) CreateTopic(req CreateTopicRequest) (*TopicResponse, error) {
	validator := validation.NewValidator()
	validator.Field("category_id", req.CategoryID).Required()
	validator.Field("title", req.Title).Required().MaxLength(200)
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	record := &contentDatamodel.Topic{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.repo.CreateTopic(record); err != nil {
		s.logger.Error("failed to create topic", "error", err, "title", req.Title)
		return nil, err
	}

	response := TopicFromDataModel(record).ToResponse()
	return &response, nil
}

func (s *Service) UpdateTopic(id int64, req UpdateTopicRequest) (*TopicResponse, error) {
	validator := validation.NewValidator()
	validator.Field("title", req.Title).Required().MaxLength(200)
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetTopicByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("topic not found", apperrors.ErrCodeTopicNotFound)
	}

	record.Title = req.Title
	record.Description = req.Description
	record.UpdatedAt = s.now()
	if err := s.repo.UpdateTopic(record); err != nil {
		s.logger.Error("failed to update topic", "error", err, "topic_id", id)
		return nil, err
	}

	response := TopicFromDataModel(record).ToResponse()
	return &response, nil
}

func (s *Service) DeleteTopic(id int64) error {
	record, err := s.repo.GetTopicByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFoundError("topic not found", apperrors.ErrCodeTopicNotFound)
	}
	return s.repo.DeleteTopic(id)
}

func (s *Service) CreateArticle(req CreateArticleRequest) (*ArticleResponse, error) {
	validator := validation.NewValidator()
	validator.Field("topic_id", req.TopicID).Required()
	validator.Field("title", req.Title).Required().MaxLength(200)
	validator.Field("body", req.Body).Required()
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	topic, err := s.repo.GetTopicByID(req.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperrors.NewNotFoundError("topic not found", apperrors.ErrCodeTopicNotFound)
	}

	record := &contentDatamodel.Article{
		TopicID:  req.TopicID,
		Title:    req.Title,
		Body:     req.Body,
		Position: req.Position,
		IsActive: true,
	}
	if err := s.repo.CreateArticle(record); err != nil {
		s.logger.Error("failed to create article", "error", err, "title", req.Title)
		return nil, err
	}

	response := ArticleFromDataModel(record).ToResponse()
	return &response, nil
}

func (s *Service) UpdateArticle(id int64, req UpdateArticleRequest) (*ArticleResponse, error) {
	validator := validation.NewValidator()
	validator.Field("title", req.Title).Required().MaxLength(200)
	validator.Field("body", req.Body).Required()
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetArticleByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("article not found", apperrors.ErrCodeArticleNotFound)
	}

	record.Title = req.Title
	record.Body = req.Body
	record.Position = req.Position
	record.UpdatedAt = s.now()
	if err := s.repo.UpdateArticle(record); err != nil {
		s.logger.Error("failed to update article", "error", err, "article_id", id)
		return nil, err
	}

	response := ArticleFromDataModel(record).ToResponse()
	return &response, nil
}

func (s *Service) DeleteArticle(id int64) error {
	record, err := s.repo.GetArticleByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFoundError("article not found", apperrors.ErrCodeArticleNotFound)
	}
	return s.repo.DeleteArticle(id)
}
