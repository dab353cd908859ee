package postgres

import (
	"github.com/mechmaster/subscription-management/internal/content"
	contentDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/content"
	"gorm.io/gorm"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) content.RepositoryAPI {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) GetAllCategories() ([]*contentDatamodel.Category, error) {
	var categories []*contentDatamodel.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *ContentRepository) GetTopicsByCategory(categoryID int64) ([]*contentDatamodel.Topic, error) {
	var topics []*contentDatamodel.Topic
	err := r.db.Where("category_id = ?", categoryID).Order("title ASC").Find(&topics).Error
	return topics, err
}

func (r *ContentRepository) GetTopicByID(id int64) (*contentDatamodel.Topic, error) {
	var topic contentDatamodel.Topic
	err := r.db.Where("id = ?", id).First(&topic).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &topic, nil
}

func (r *ContentRepository) CreateTopic(topic *contentDatamodel.Topic) error {
	return r.db.Create(topic).Error
}

func (r *ContentRepository) UpdateTopic(topic *contentDatamodel.Topic) error {
	return r.db.Save(topic).Error
}

func (r *ContentRepository) DeleteTopic(id int64) error {
	return r.db.Model(&contentDatamodel.Topic{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *ContentRepository) GetArticlesByTopic(topicID int64) ([]*contentDatamodel.Article, error) {
	var articles []*contentDatamodel.Article
	err := r.db.Where("topic_id = ?", topicID).Order("position ASC, id ASC").Find(&articles).Error
	return articles, err
}

func (r *ContentRepository) GetArticleByID(id int64) (*contentDatamodel.Article, error) {
	var article contentDatamodel.Article
	err := r.db.Where("id = ?", id).First(&article).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (r *ContentRepository) CreateArticle(article *contentDatamodel.Article) error {
	return r.db.Create(article).Error
}

func (r *ContentRepository) UpdateArticle(article *contentDatamodel.Article) error {
	return r.db.Save(article).Error
}

func (r *ContentRepository) DeleteArticle(id int64) error {
	return r.db.Model(&contentDatamodel.Article{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *ContentRepository) SearchTopicsByPrefix(prefix string, limit int) ([]*contentDatamodel.Topic, error) {
	var topics []*contentDatamodel.Topic
	err := r.db.
		Where("title LIKE ? AND is_active = ?", prefix+"%", true).
		Order("title ASC").
		Limit(limit).
		Find(&topics).Error
	return topics, err
}
