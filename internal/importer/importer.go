// Package importer loads legacy ideas from the spreadsheet export into the store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"ideacentral/backend/internal/auth"
	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"

	"golang.org/x/text/encoding/charmap"
)

// Column headers of the legacy export.
const (
	colSubmitter    = "Idea Submitter"
	colTitle        = "Idea Title"
	colCategory     = "Idea Category"
	colDescription  = "Idea Description"
	colTool         = "Tool/Technology"
	colStatus       = "Status and ETA"
	colContributors = "Contributors"
	colDriveLink    = "Google Drive link to resources"
	colValueAdd     = "Value Add in words"
)

const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// DefaultPlaceholderPassword is given to users the import has to create.
const DefaultPlaceholderPassword = "password123"

// Result counts what an import did.
type Result struct {
	UsersCreated  int
	IdeasInserted int
	RowsSkipped   int
}

// Importer inserts legacy rows as ideas. It does not assign reviewers or credit beans.
type Importer struct {
	users    *repository.UserRepository
	ideas    *repository.IdeaRepository
	password string
}

func New(users *repository.UserRepository, ideas *repository.IdeaRepository, placeholderPassword string) *Importer {
	if placeholderPassword == "" {
		placeholderPassword = DefaultPlaceholderPassword
	}
	return &Importer{users: users, ideas: ideas, password: placeholderPassword}
}

// Run reads CSV from r, decoding it from the named encoding first.
func (im *Importer) Run(ctx context.Context, r io.Reader, encoding string) (Result, error) {
	var res Result

	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
	case EncodingLatin1, "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return res, fmt.Errorf("unsupported encoding %q", encoding)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index[colSubmitter]; !ok {
		return res, fmt.Errorf("missing %q column", colSubmitter)
	}

	hash, err := auth.HashPassword(im.password)
	if err != nil {
		return res, fmt.Errorf("hash placeholder password: %w", err)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		email := models.NormalizeEmail(field(colSubmitter))
		if email == "" {
			log.Printf("[Importer] Line %d has no submitter, skipping", line)
			res.RowsSkipped++
			continue
		}

		user, created, err := im.users.UpsertLogin(ctx, models.User{
			Name:         nameFromEmail(email),
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			return res, fmt.Errorf("line %d: upsert user %s: %w", line, email, err)
		}
		if created {
			log.Printf("[Importer] New user created: %s", email)
			res.UsersCreated++
		}

		idea := models.Idea{
			Name:              user.Name,
			Email:             email,
			IdeaTitle:         field(colTitle),
			IdeaCategory:      listOf(field(colCategory)),
			IdeaDescription:   field(colDescription),
			ToolsTechnologies: listOf(field(colTool)),
			Status:            optional(field(colStatus)),
			Contributors:      optional(field(colContributors)),
			GoogleLink:        optional(field(colDriveLink)),
			ValueAddWords:     optional(field(colValueAdd)),
		}
		stored, err := im.ideas.Create(ctx, idea)
		if err != nil {
			return res, fmt.Errorf("line %d: insert idea: %w", line, err)
		}
		log.Printf("[Importer] Idea inserted: %s (%s)", stored.IdeaTitle, stored.IdeaID)
		res.IdeasInserted++
	}

	return res, nil
}

// nameFromEmail turns "jane.doe@x.com" into "Jane.doe".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(local[size:])
}

func listOf(v string) []string {
	if v == "" {
		return []string{}
	}
	return []string{v}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
