package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is keyed by Email. ID is the store's physical key and never leaves the service.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email          string             `bson:"email" json:"email"`
	Name           string             `bson:"name" json:"name"`
	IsReviewer     bool               `bson:"is_reviewer" json:"is_reviewer"`
	Admin          bool               `bson:"admin" json:"admin"`
	ReviewCount    int                `bson:"review_count" json:"review_count"`
	ReviewIdeas    []string           `bson:"review_ideas" json:"review_ideas"`
	SubmittedIdeas []string           `bson:"submitted_ideas" json:"submitted_ideas"`
	Beans          int                `bson:"beans" json:"beans"`
	PasswordHash   string             `bson:"password,omitempty" json:"-"`
}

// TopSubmitter is one leaderboard row.
type TopSubmitter struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Beans int    `bson:"beans" json:"beans"`
}

// Idea is keyed by IdeaID, which is generated once at creation and never changes.
type Idea struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	IdeaID             string             `bson:"idea_id" json:"idea_id"`
	Email              string             `bson:"email" json:"email"`
	Name               string             `bson:"name" json:"name"`
	IdeaTitle          string             `bson:"ideaTitle" json:"ideaTitle"`
	IdeaCategory       []string           `bson:"ideaCategory" json:"ideaCategory"`
	IdeaDescription    string             `bson:"ideaDescription" json:"ideaDescription"`
	ValueAdd           *string            `bson:"valueAdd,omitempty" json:"valueAdd,omitempty"`
	ValueAddWords      *string            `bson:"valueAddWords,omitempty" json:"valueAddWords,omitempty"`
	ToolsTechnologies  []string           `bson:"toolsTechnologies" json:"toolsTechnologies"`
	Contributors       *string            `bson:"contributors,omitempty" json:"contributors,omitempty"`
	Complexity         *string            `bson:"complexity,omitempty" json:"complexity,omitempty"`
	PrimaryBeneficiary []string           `bson:"primaryBeneficiary" json:"primaryBeneficiary"`
	ImplementIdea      *string            `bson:"implementIdea,omitempty" json:"implementIdea,omitempty"`
	GoogleLink         *string            `bson:"googleLink,omitempty" json:"googleLink,omitempty"`
	Status             *string            `bson:"status,omitempty" json:"status,omitempty"`

	// Review fields, filled in later by the assigned reviewer.
	CommentName *string `bson:"comment_name,omitempty" json:"comment_name,omitempty"`
	ReviewDate  *string `bson:"review_date,omitempty" json:"review_date,omitempty"`
	Comments    *string `bson:"comments,omitempty" json:"comments,omitempty"`
	Grading     *string `bson:"grading,omitempty" json:"grading,omitempty"`
	Feedback    *string `bson:"feedback,omitempty" json:"feedback,omitempty"`

	// Assigned is set by whichever path claims the idea for reviewer
	// assignment; it is cleared again only when that attempt fails.
	Assigned            bool       `bson:"assigned" json:"assigned"`
	AssignmentClaimedAt *time.Time `bson:"assignment_claimed_at,omitempty" json:"-"`
}

// IdeaPatch carries a partial idea update. Nil fields are left untouched.
// IdeaID is deliberately absent: the id of an idea cannot be patched.
type IdeaPatch struct {
	Email              *string   `json:"email"`
	Name               *string   `json:"name"`
	IdeaTitle          *string   `json:"ideaTitle"`
	IdeaCategory       *[]string `json:"ideaCategory"`
	IdeaDescription    *string   `json:"ideaDescription"`
	ValueAdd           *string   `json:"valueAdd"`
	ValueAddWords      *string   `json:"valueAddWords"`
	ToolsTechnologies  *[]string `json:"toolsTechnologies"`
	Contributors       *string   `json:"contributors"`
	Complexity         *string   `json:"complexity"`
	PrimaryBeneficiary *[]string `json:"primaryBeneficiary"`
	ImplementIdea      *string   `json:"implementIdea"`
	GoogleLink         *string   `json:"googleLink"`
	Status             *string   `json:"status"`
	CommentName        *string   `json:"comment_name"`
	ReviewDate         *string   `json:"review_date"`
	Comments           *string   `json:"comments"`
	Grading            *string   `json:"grading"`
	Feedback           *string   `json:"feedback"`
}

// Fields returns the set fields keyed by their stored names.
func (p IdeaPatch) Fields() bson.M {
	fields := bson.M{}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setList := func(key string, v *[]string) {
		if v != nil {
			fields[key] = nonNil(*v)
		}
	}

	if p.Email != nil {
		fields["email"] = NormalizeEmail(*p.Email)
	}
	setString("name", p.Name)
	setString("ideaTitle", p.IdeaTitle)
	setList("ideaCategory", p.IdeaCategory)
	setString("ideaDescription", p.IdeaDescription)
	setString("valueAdd", p.ValueAdd)
	setString("valueAddWords", p.ValueAddWords)
	setList("toolsTechnologies", p.ToolsTechnologies)
	setString("contributors", p.Contributors)
	setString("complexity", p.Complexity)
	setList("primaryBeneficiary", p.PrimaryBeneficiary)
	setString("implementIdea", p.ImplementIdea)
	setString("googleLink", p.GoogleLink)
	setString("status", p.Status)
	setString("comment_name", p.CommentName)
	setString("review_date", p.ReviewDate)
	setString("comments", p.Comments)
	setString("grading", p.Grading)
	setString("feedback", p.Feedback)
	return fields
}

// UserPatch carries a profile update. The review and submission lists are
// not part of it; only the assignment workflow writes those.
type UserPatch struct {
	Name       *string `json:"name"`
	IsReviewer *bool   `json:"is_reviewer"`
	Admin      *bool   `json:"admin"`
}

func (p UserPatch) Fields() bson.M {
	fields := bson.M{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.IsReviewer != nil {
		fields["is_reviewer"] = *p.IsReviewer
	}
	if p.Admin != nil {
		fields["admin"] = *p.Admin
	}
	return fields
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize fills the list fields so they are stored as arrays, never null.
func (i *Idea) Normalize() {
	i.Email = NormalizeEmail(i.Email)
	i.IdeaCategory = nonNil(i.IdeaCategory)
	i.ToolsTechnologies = nonNil(i.ToolsTechnologies)
	i.PrimaryBeneficiary = nonNil(i.PrimaryBeneficiary)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
