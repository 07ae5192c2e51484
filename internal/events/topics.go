package events

// Topic constants for promotion catalog events. They double as asynq task types.
const (
	TopicPromotionCreated = "promotion.created"
	TopicPromotionUpdated = "promotion.updated"
	TopicPromotionDeleted = "promotion.deleted"
)

// QueuePromotions is the asynq queue promotion events are enqueued on.
const QueuePromotions = "promotions"

// DefaultTopics returns every topic the worker subscribes to.
func DefaultTopics() []string {
	return []string{
		TopicPromotionCreated,
		TopicPromotionUpdated,
		TopicPromotionDeleted,
	}
}
