package importer

import (
	"context"
	"strings"
	"testing"

	"ideacentral/backend/internal/database"
	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const header = "Idea Submitter,Idea Title,Idea Category,Idea Description,Tool/Technology,Status and ETA,Contributors,Google Drive link to resources,Value Add in words\n"

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	users := repository.NewUserRepository(store)
	ideas := repository.NewIdeaRepository(store)

	_, _, err := users.UpsertLogin(ctx, models.User{Name: "Existing", Email: "old@x.com"})
	require.NoError(t, err)
	require.NoError(t, users.RecordSubmission(ctx, "old@x.com", "Existing", "prior", 50))

	// exported sheets start with a byte order mark
	csv := "\ufeff" + header +
		"JANE.DOE@x.com,Chatbot,AI,Answers FAQs,Go,Q3,,https://drive/1,Saves time\n" +
		"jane.doe@x.com,Dashboards,,Shows KPIs,,,Bob,,\n" +
		",Orphan row,,,,,,,\n" +
		"old@x.com,Cleanup,Ops,Removes dead code,,,,,\n"

	res, err := New(users, ideas, "secret").Run(ctx, strings.NewReader(csv), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersCreated: 1, IdeasInserted: 3, RowsSkipped: 1}, res)

	jane, err := users.FindByEmail(ctx, "jane.doe@x.com")
	require.NoError(t, err)
	require.NotNil(t, jane)
	assert.Equal(t, "Jane.doe", jane.Name)
	assert.False(t, jane.IsReviewer)
	assert.Zero(t, jane.Beans)
	assert.Empty(t, jane.SubmittedIdeas)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(jane.PasswordHash), []byte("secret")))

	old, err := users.FindByEmail(ctx, "old@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Existing", old.Name)
	assert.Equal(t, 50, old.Beans)

	janeIdeas, err := ideas.FindBySubmitter(ctx, "jane.doe@x.com")
	require.NoError(t, err)
	require.Len(t, janeIdeas, 2)
	first := janeIdeas[0]
	assert.Equal(t, "Chatbot", first.IdeaTitle)
	assert.Equal(t, []string{"AI"}, first.IdeaCategory)
	assert.Equal(t, []string{"Go"}, first.ToolsTechnologies)
	require.NotNil(t, first.GoogleLink)
	assert.Equal(t, "https://drive/1", *first.GoogleLink)
	assert.Nil(t, first.Contributors)
	assert.Equal(t, []string{}, janeIdeas[1].IdeaCategory)
	require.NotNil(t, janeIdeas[1].Contributors)
	assert.Equal(t, "Bob", *janeIdeas[1].Contributors)
}

func TestRunLatin1(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	ideas := repository.NewIdeaRepository(store)
	im := New(repository.NewUserRepository(store), ideas, "")

	csv := "Idea Submitter,Idea Title\n" + "ana@x.com,Caf\xe9 kiosk\n"
	res, err := im.Run(ctx, strings.NewReader(csv), EncodingLatin1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.IdeasInserted)

	got, err := ideas.FindBySubmitter(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Café kiosk", got[0].IdeaTitle)
}

func TestRunRejectsBadInput(t *testing.T) {
	store := database.NewMemoryStore()
	im := New(repository.NewUserRepository(store), repository.NewIdeaRepository(store), "")

	_, err := im.Run(context.Background(), strings.NewReader("Title\nx\n"), EncodingUTF8)
	assert.Error(t, err)

	_, err = im.Run(context.Background(), strings.NewReader(header), "utf16")
	assert.Error(t, err)
}

func TestNameFromEmail(t *testing.T) {
	assert.Equal(t, "Jane.doe", nameFromEmail("jane.doe@x.com"))
	assert.Equal(t, "Émile", nameFromEmail("émile@x.com"))
	assert.Equal(t, "", nameFromEmail("@x.com"))
}
