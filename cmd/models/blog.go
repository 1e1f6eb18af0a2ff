package models

import "gorm.io/gorm"

type Post struct {
    gorm.Model
    Text      string    `gorm:"column:text;type:text;not null" json:"text"`
    AuthorID  uint      `gorm:"column:author_id;not null;index" json:"author_id"`
    GroupID   *uint     `gorm:"column:group_id;index" json:"group_id,omitempty"`
    ImagePath string    `gorm:"column:image_path;size:255" json:"image_path,omitempty"`
    Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
    Group     *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
    Comments  []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// EditableBy reports whether userID may mutate the post. Zero means
// unauthenticated and never matches.
func (p *Post) EditableBy(userID uint) bool {
    return userID != 0 && p.AuthorID == userID
}

type Group struct {
    gorm.Model
    Title       string `gorm:"column:title;size:200;not null" json:"title"`
    Slug        string `gorm:"column:slug;size:100;not null;uniqueIndex" json:"slug"`
    Description string `gorm:"column:description;type:text" json:"description"`
    Posts       []Post `gorm:"foreignKey:GroupID" json:"posts,omitempty"`
}

type Comment struct {
    gorm.Model
    PostID   uint   `gorm:"column:post_id;not null;index" json:"post_id"`
    AuthorID uint   `gorm:"column:author_id;not null" json:"author_id"`
    Text     string `gorm:"column:text;type:text;not null" json:"text"`
    Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
