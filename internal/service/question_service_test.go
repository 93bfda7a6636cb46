package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMCQs(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantParsed  int
		wantSkipped []string
		check       func(t *testing.T, parsed []ParsedQuestion)
	}{
		{
			name: "well formed block",
			text: "1. What is the SI unit of force?\nA) Joule\nB) Newton\nC) Watt\nD) Pascal\nAnswer: B\n",
			wantParsed: 1,
			check: func(t *testing.T, parsed []ParsedQuestion) {
				q := parsed[0]
				assert.Equal(t, "What is the SI unit of force?", q.Text)
				require.Len(t, q.Options, 4)
				assert.Equal(t, "Newton", q.Options[1].Text)
				assert.Equal(t, "B", q.Answer)
			},
		},
		{
			name: "lowercase letters and wrapped text",
			text: "2. The derivative of sin x\n   with respect to x is\na) cos x\nb) -cos x\nanswer b",
			wantParsed: 1,
			check: func(t *testing.T, parsed []ParsedQuestion) {
				assert.Equal(t, "The derivative of sin x with respect to x is", parsed[0].Text)
				assert.Equal(t, "A", parsed[0].Options[0].Letter)
				assert.Equal(t, "B", parsed[0].Answer)
			},
		},
		{
			name:        "missing answer",
			text:        "1. Orphan question\nA) yes\nB) no\n",
			wantSkipped: []string{"Skipped: 'Orphan question' (missing options/answer)"},
		},
		{
			name:        "answer not among options",
			text:        "1. Pick one\nA) x\nB) y\nAnswer: D",
			wantSkipped: []string{"Skipped: 'Pick one' (answer D is not an option)"},
		},
		{
			name:        "duplicate letter",
			text:        "1. Pick one\nA) x\nA) y\nAnswer: A",
			wantSkipped: []string{"Skipped: 'Pick one' (duplicate option A)"},
		},
		{
			name: "mixed blocks with CRLF",
			text: "1. Good one\r\nA) x\r\nB) y\r\nAnswer: A\r\n\r\n2. Bad one\r\nA) x\r\n" +
				"3. Another good\r\nA) p\r\nB) q\r\nC) r\r\nAnswer: C\r\n",
			wantParsed:  2,
			wantSkipped: []string{"Skipped: 'Bad one' (missing options/answer)"},
		},
		{
			name: "free text is ignored",
			text: "Physics chapter 3\nno numbered questions here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, skipped := ParseMCQs(tt.text)
			assert.Len(t, parsed, tt.wantParsed)
			assert.Equal(t, tt.wantSkipped, skipped)
			if tt.check != nil && len(parsed) > 0 {
				tt.check(t, parsed)
			}
		})
	}
}

func TestParseMCQs_TruncatesLongTextInReport(t *testing.T) {
	_, skipped := ParseMCQs("1. " + "Which of the following statements about thermodynamics is correct\nA) only")
	require.Len(t, skipped, 1)
	assert.Equal(t, "Skipped: 'Which of the following statements about ...' (missing options/answer)", skipped[0])
}

type questionFixture struct {
	db    *inmem.DB
	svc   *QuestionService
	admin uuid.UUID
	topic *model.Topic
}

func newQuestionFixture(t *testing.T) *questionFixture {
	t.Helper()
	db := inmem.NewDB()
	_, topic, _ := seedQuestions(db, "Chemistry", 0)
	return &questionFixture{
		db:    db,
		svc:   NewQuestionService(inmem.NewQuestionRepository(db)),
		admin: uuid.New(),
		topic: topic,
	}
}

func options(correct ...bool) []model.OptionInput {
	out := make([]model.OptionInput, 0, len(correct))
	for i, c := range correct {
		out = append(out, model.OptionInput{OptionText: "choice " + string(rune('A'+i)), IsCorrect: c})
	}
	return out
}

func TestQuestion_CreateRequiresExactlyOneCorrectOption(t *testing.T) {
	f := newQuestionFixture(t)
	base := model.QuestionRequest{TopicID: f.topic.ID, QuestionText: "  Valency of carbon?  "}

	tests := []struct {
		name    string
		options []model.OptionInput
		wantErr error
	}{
		{"no correct", options(false, false, false), ErrCorrectOption},
		{"two correct", options(true, true, false), ErrCorrectOption},
		{"single option", options(true), nil},
		{"ok", options(false, true, false, false), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.Options = tt.options
			q, err := f.svc.CreateQuestion(f.admin, req)
			switch {
			case tt.name == "single option":
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "options", verr.Field)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Valency of carbon?", q.QuestionText)
				assert.Equal(t, model.QuestionTypeMCQ, q.QuestionType)
				assert.Equal(t, model.DifficultyMedium, q.Difficulty)
				assert.Equal(t, 1, q.Marks)
				require.Len(t, q.Options, 4)
				assert.Equal(t, 3, q.Options[2].Order)
			}
		})
	}
}

func TestQuestion_DuplicateOrderRejected(t *testing.T) {
	f := newQuestionFixture(t)
	_, err := f.svc.CreateQuestion(f.admin, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Order clash",
		Options: []model.OptionInput{
			{OptionText: "a", Order: 1, IsCorrect: true},
			{OptionText: "b", Order: 1},
		},
	})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestQuestion_NumericalSkipsOptionRules(t *testing.T) {
	f := newQuestionFixture(t)
	q, err := f.svc.CreateQuestion(f.admin, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Compute 2+2",
		QuestionType: model.QuestionTypeNumerical,
	})
	require.NoError(t, err)
	assert.Empty(t, q.Options)
}

func TestQuestion_CreateUnknownTopic(t *testing.T) {
	f := newQuestionFixture(t)
	_, err := f.svc.CreateQuestion(f.admin, model.QuestionRequest{
		TopicID:      uuid.New(),
		QuestionText: "Lost",
		Options:      options(true, false),
	})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Topic", nf.Resource)
}

func TestQuestion_UpdateKeepsOrReplacesOptions(t *testing.T) {
	f := newQuestionFixture(t)
	q, err := f.svc.CreateQuestion(f.admin, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Original",
		Options:      options(true, false, false),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuestion(q.ID, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Reworded",
		Difficulty:   model.DifficultyHard,
	})
	require.NoError(t, err)
	assert.Equal(t, "Reworded", updated.QuestionText)

	stored, err := f.svc.GetQuestion(q.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Options, 3)
	assert.Equal(t, model.DifficultyHard, stored.Difficulty)

	_, err = f.svc.UpdateQuestion(q.ID, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Reworded",
		Options:      options(false, false),
	})
	assert.ErrorIs(t, err, ErrCorrectOption)

	_, err = f.svc.UpdateQuestion(q.ID, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Reworded",
		Options:      options(false, true),
	})
	require.NoError(t, err)
	stored, err = f.svc.GetQuestion(q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Options, 2)
	assert.True(t, stored.Options[1].IsCorrect)
}

func TestQuestion_ToggleBookmark(t *testing.T) {
	f := newQuestionFixture(t)
	q, err := f.svc.CreateQuestion(f.admin, model.QuestionRequest{
		TopicID:      f.topic.ID,
		QuestionText: "Bookmark me",
		Options:      options(true, false),
	})
	require.NoError(t, err)
	user := uuid.New()

	resp, created, err := f.svc.ToggleBookmark(user, q.ID, "revise before exam")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, resp.Bookmarked)

	marks, err := f.svc.ListBookmarks(user)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "revise before exam", marks[0].Notes)

	resp, created, err = f.svc.ToggleBookmark(user, q.ID, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, resp.Bookmarked)

	marks, err = f.svc.ListBookmarks(user)
	require.NoError(t, err)
	assert.Empty(t, marks)

	_, _, err = f.svc.ToggleBookmark(user, uuid.New(), "")
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestQuestion_ImportSkipsMalformedAndExisting(t *testing.T) {
	f := newQuestionFixture(t)
	text := `1. Atomic number of oxygen?
A) 6
B) 7
C) 8
D) 9
Answer: C

2. Broken block
A) only one

3. Avogadro's number is approximately
A) 6.022e23
B) 3.14
Answer: A`

	resp, err := f.svc.ImportMCQs(f.admin, model.ImportQuestionsRequest{TopicID: f.topic.ID, Text: text})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 1, resp.Skipped)

	page, err := f.svc.ListQuestions(model.QuestionFilter{TopicID: &f.topic.ID})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	for _, q := range page.Results {
		if q.QuestionText == "Atomic number of oxygen?" {
			correct := q.CorrectOption()
			require.NotNil(t, correct)
			assert.Equal(t, "8", correct.OptionText)
		}
	}

	again, err := f.svc.ImportMCQs(f.admin, model.ImportQuestionsRequest{TopicID: f.topic.ID, Text: text})
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 3, again.Skipped)
	assert.Contains(t, again.Errors, "Skipped: 'Atomic number of oxygen?' (already exists)")
}

func TestQuestion_ImportRejectsUnparseableText(t *testing.T) {
	f := newQuestionFixture(t)
	_, err := f.svc.ImportMCQs(f.admin, model.ImportQuestionsRequest{TopicID: f.topic.ID, Text: "hello world"})
	assert.ErrorIs(t, err, ErrInvalidImportInput)
}

func TestQuestion_PracticeHidesAnswers(t *testing.T) {
	db := inmem.NewDB()
	subject, _, _ := seedQuestions(db, "Maths", 15)
	svc := NewQuestionService(inmem.NewQuestionRepository(db))

	set, err := svc.Practice(subject.ID)
	require.NoError(t, err)
	assert.Len(t, set, practiceSetSize)

	_, err = svc.Practice(uuid.New())
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}
