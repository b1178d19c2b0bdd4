package stream

// TopicRouter determines which topics a verdict event should be published to.
type TopicRouter struct {
	topics Topics
}

// NewTopicRouter creates a new topic router with the given topic configuration.
func NewTopicRouter(topics Topics) *TopicRouter {
	return &TopicRouter{
		topics: topics,
	}
}

// Route returns the list of topics this event should be published to.
//
// Routing rules:
//   - ALL events go to topics.Verdicts
//   - Blocked events also go to topics.Blocked
func (r *TopicRouter) Route(event VerdictEvent) []string {
	topics := []string{r.topics.Verdicts}

	if event.Blocked {
		topics = append(topics, r.topics.Blocked)
	}

	return topics
}
