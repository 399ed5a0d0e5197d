package domain

import "time"

const TopicUserRegistered = "user.registered"

// UserRegisteredEvent 用户注册事件
type UserRegisteredEvent struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
