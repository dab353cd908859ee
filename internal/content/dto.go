package content

type CategoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type TopicResponse struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TopicsResponse struct {
	Topics []TopicResponse `json:"topics"`
}

// ArticleSummary lists an article without its body; the body is only
// served to subscribers.
type ArticleSummary struct {
	ID       int64  `json:"id"`
	TopicID  int64  `json:"topic_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type ArticlesResponse struct {
	Articles []ArticleSummary `json:"articles"`
}

type ArticleResponse struct {
	ID       int64  `json:"id"`
	TopicID  int64  `json:"topic_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Position int    `json:"position"`
}

type SuggestionsResponse struct {
	Suggestions []TopicResponse `json:"suggestions"`
}

type CreateTopicRequest struct {
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateTopicRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreateArticleRequest struct {
	TopicID  int64  `json:"topic_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Position int    `json:"position"`
}

type UpdateArticleRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Position int    `json:"position"`
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

func (t *Topic) ToResponse() TopicResponse {
	return TopicResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Title:       t.Title,
		Description: t.Description,
	}
}

func (a *Article) ToSummary() ArticleSummary {
	return ArticleSummary{
		ID:       a.ID,
		TopicID:  a.TopicID,
		Title:    a.Title,
		Position: a.Position,
	}
}

func (a *Article) ToResponse() ArticleResponse {
	return ArticleResponse{
		ID:       a.ID,
		TopicID:  a.TopicID,
		Title:    a.Title,
		Body:     a.Body,
		Position: a.Position,
	}
}
