package model

import "time"

type Todo struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        *string   `json:"description"`
	Completed          bool      `json:"completed"`
	CompletedPomodoros int       `json:"completedPomodoros"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
