package notifier

import (
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/profile"
)

// Compose maps a notification kind to its alert text. Total over its input:
// an unrecognized kind degrades to a generic app alert instead of failing
// the batch.
func Compose(kind notification.Kind, actor profile.Profile) notification.Message {
	name := actor.Name()
	switch kind {
	case notification.KindLike:
		return notification.Message{Title: "New Like", Body: name + " liked your post"}
	case notification.KindFollow:
		return notification.Message{Title: "New Follower", Body: name + " started following you"}
	case notification.KindComment:
		return notification.Message{Title: "New Comment", Body: name + " commented on your post"}
	default:
		return notification.Message{Title: "ThisDay", Body: "You have a new notification"}
	}
}
