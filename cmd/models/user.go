package models

import (
    "time"

    "gorm.io/gorm"
)

type User struct {
    gorm.Model
    Username     string `gorm:"column:username;size:150;not null;uniqueIndex" json:"username"`
    Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
    PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
    FullName     string `gorm:"column:full_name;size:255" json:"full_name,omitempty"`
    Bio          string `gorm:"column:bio;type:text" json:"bio,omitempty"`

    Posts []Post `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

// Follow is a directed edge: User receives Author's posts in their
// following feed. The composite unique index keeps the edge singular
// per (user, author) pair. No DeletedAt: unfollow removes the row for
// real, so a later re-follow does not collide with the index.
type Follow struct {
    ID        uint      `gorm:"primaryKey" json:"id"`
    UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_user_author" json:"user_id"`
    AuthorID  uint      `gorm:"column:author_id;not null;uniqueIndex:idx_user_author" json:"author_id"`
    CreatedAt time.Time `json:"created_at"`
    User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
    Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
