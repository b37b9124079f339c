package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Unavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("dial tcp: connection refused")))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if !errors.Is(err, db.ErrUnavailable) || !isDBError(err) {
		t.Fatalf("expected classified db.Error, got %v", err)
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("connection refused"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		MinTimes(1)

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected last ping error, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"transport", errors.New("dial tcp: connection refused"), db.ErrUnavailable},
		{"nil reply", rueidis.Nil, db.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := classify(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.in, err, tt.want)
			}
		})
	}

	if err := classify(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, db.ErrUnavailable) {
		t.Errorf("canceled should pass through, got %v", err)
	}
}

func TestClassify_ServerReplies(t *testing.T) {
	tests := []struct {
		reply string
		want  error
	}{
		{"Unknown Index name", db.ErrIndexNotFound},
		{"profiles: no such index", db.ErrIndexNotFound},
		{"Index already exists", db.ErrIndexExists},
		{"Syntax error at offset 3", db.ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
				Return(mock.Result(mock.RedisError(tt.reply)))

			err := NewStoreForTest(c).Ping(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// --- documents.go tests ---

func TestReplaceDocuments_WrapsEachInTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var hset []string
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("MULTI"),
			mock.Match("DEL", "profile:u1"),
			mock.MatchFn(func(cmd []string) bool {
				hset = cmd
				return cmd[0] == "HSET" && cmd[1] == "profile:u1"
			}),
			mock.Match("EXEC"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisArray(mock.RedisInt64(1), mock.RedisInt64(1))),
		})

	s := NewStoreForTest(c)
	err := s.ReplaceDocuments(context.Background(), []db.Document{
		{Key: "profile:u1", Fields: map[string]string{"id": "u1", "region": ""}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(hset, " ") != "HSET profile:u1 id u1" {
		t.Errorf("empty fields must be skipped, got %q", strings.Join(hset, " "))
	}
}

func TestReplaceDocuments_AllEmptyOnlyDeletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("MULTI"), mock.Match("DEL", "profile:u1"), mock.Match("EXEC")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisArray(mock.RedisInt64(1))),
		})

	s := NewStoreForTest(c)
	if err := s.ReplaceDocuments(context.Background(), []db.Document{{Key: "profile:u1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplaceDocuments_NamesFailingKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	ok := mock.Result(mock.RedisString("OK"))
	queued := mock.Result(mock.RedisString("QUEUED"))
	c.EXPECT().
		DoMulti(gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
		).
		Return([]rueidis.RedisResult{
			ok, queued, queued, mock.Result(mock.RedisArray(mock.RedisInt64(1), mock.RedisInt64(1))),
			ok, queued, queued, mock.ErrorResult(errors.New("connection reset by peer")),
		})

	s := NewStoreForTest(c)
	err := s.ReplaceDocuments(context.Background(), []db.Document{
		{Key: "profile:u1", Fields: map[string]string{"id": "u1"}},
		{Key: "profile:u2", Fields: map[string]string{"id": "u2"}},
	})
	if err == nil || !strings.Contains(err.Error(), "profile:u2") {
		t.Fatalf("expected error naming failing key, got %v", err)
	}
	if !errors.Is(err, db.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestReplaceDocuments_Empty(t *testing.T) {
	s := &Store{}
	if err := s.ReplaceDocuments(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "tier:u1")).
		Return(mock.Result(mock.RedisBlobString("dating")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "tier:u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "dating" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "tier:u1")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "tier:u1")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Unavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "tier:u1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "tier:u1")
	if !errors.Is(err, db.ErrUnavailable) || errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "tier:u1", "basic", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "tier:u1", []byte("basic"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel(t *testing.T) {
	tests := []struct {
		name    string
		deleted int64
		want    error
	}{
		{"existing key", 1, nil},
		{"missing key", 0, db.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("DEL", "profile:u1")).
				Return(mock.Result(mock.RedisInt64(tt.deleted)))

			err := NewStoreForTest(c).Del(context.Background(), "profile:u1")
			if !errors.Is(err, tt.want) {
				t.Errorf("Del() = %v, want %v", err, tt.want)
			}
		})
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx, err := db.NewIndex("profiles").
		Prefix("profile:").
		Tag("id").
		Numeric("age_sort").
		Text("topicTags").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FT.CREATE profiles ON HASH PREFIX 1 profile: SCHEMA id TAG age_sort NUMERIC SORTABLE topicTags TEXT"
	if strings.Join(got, " ") != want {
		t.Errorf("command = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "profiles",
		Fields: []db.IndexField{{Name: "f", Type: db.FieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	s := &Store{}
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "profiles"})
	if err == nil || isDBError(err) {
		t.Fatalf("expected validation error before any command, got %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "profiles")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "profiles"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name     string
		reply    rueidis.RedisMessage
		docs     int
		indexing bool
	}{
		{
			"integer counts",
			mock.RedisArray(
				mock.RedisString("index_name"), mock.RedisString("profiles"),
				mock.RedisString("num_docs"), mock.RedisInt64(42),
				mock.RedisString("indexing"), mock.RedisInt64(0),
			),
			42, false,
		},
		{
			"string counts",
			mock.RedisArray(
				mock.RedisString("num_docs"), mock.RedisString("7"),
				mock.RedisString("indexing"), mock.RedisString("1"),
				mock.RedisString("attributes"), mock.RedisArray(mock.RedisString("id")),
			),
			7, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("FT.INFO", "profiles")).
				Return(mock.Result(tt.reply))

			info, err := NewStoreForTest(c).Info(context.Background(), "profiles")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Name != "profiles" || info.NumDocs != tt.docs || info.Indexing != tt.indexing {
				t.Errorf("Info() = %+v", info)
			}
		})
	}
}

func TestInfo_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "profiles")).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	_, err := NewStoreForTest(c).Info(context.Background(), "profiles")
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

// --- search.go tests ---

func scenarioPredicate(t *testing.T) filter.Predicate {
	t.Helper()
	gte, _ := filter.NewRange("age_sort", filter.Gte, 18)
	lte, _ := filter.NewRange("age_sort", filter.Lte, 99)
	ne, _ := filter.NewNotMatch("id", "u1")
	p, err := filter.NewPredicate(gte, lte, ne)
	if err != nil {
		t.Fatalf("NewPredicate: %v", err)
	}
	return p
}

func TestBuildQuery_WeightedFreeText(t *testing.T) {
	q := &db.TextQuery{
		IndexName: "profiles",
		Term:      "hiking reading",
		Fields:    []string{"topicTags", "answerText"},
		Weights:   []int{2, 1},
		Predicate: scenarioPredicate(t),
		Limit:     20,
	}

	want := "@age_sort:[18 +inf] @age_sort:[-inf 99] -@id:{u1} " +
		"((@topicTags:(hiking reading)) => { $weight: 2; } | (@answerText:(hiking reading)) => { $weight: 1; })"
	if got := buildQuery(q); got != want {
		t.Errorf("buildQuery =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildQuery_SingleField(t *testing.T) {
	q := &db.TextQuery{Term: "art music", Fields: []string{"selectedTags"}, Weights: []int{1}}
	want := "(@selectedTags:(art music)) => { $weight: 1; }"
	if got := buildQuery(q); got != want {
		t.Errorf("buildQuery = %q, want %q", got, want)
	}
}

func TestBuildQuery_Browse(t *testing.T) {
	q := &db.TextQuery{Term: "*", Fields: []string{"topicTags"}, Weights: []int{1}, Predicate: scenarioPredicate(t)}
	want := "@age_sort:[18 +inf] @age_sort:[-inf 99] -@id:{u1}"
	if got := buildQuery(q); got != want {
		t.Errorf("buildQuery = %q, want %q", got, want)
	}

	if got := buildQuery(&db.TextQuery{Term: "*"}); got != "*" {
		t.Errorf("unfiltered browse = %q, want *", got)
	}
}

func TestBuildFilter_TagEscaping(t *testing.T) {
	m, _ := filter.NewMatch("region", "New York")
	p, _ := filter.NewPredicate(m)
	if got := buildFilter(p); got != `@region:{New\ York}` {
		t.Errorf("buildFilter = %q", got)
	}
}

func TestEscapeQuery(t *testing.T) {
	input := `hello "world" @user {tag}`
	escaped := escapeQuery(input)
	expected := `hello \"world\" \@user \{tag\}`
	if escaped != expected {
		t.Errorf("expected %q, got %q", expected, escaped)
	}
}

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("profile:u2"),
			mock.RedisString("3.5"),
			mock.RedisArray(
				mock.RedisString("username"), mock.RedisString("ana"),
				mock.RedisString("age"), mock.RedisString("27"),
			),
			mock.RedisString("profile:u3"),
			mock.RedisString("1.25"),
			mock.RedisArray(
				mock.RedisString("username"), mock.RedisString("bo"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "profiles",
		Term:         "hiking",
		Fields:       []string{"topicTags"},
		Weights:      []int{2},
		Offset:       20,
		Limit:        20,
		ReturnFields: []string{"username", "age"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("total=%d entries=%d, want 2/2", res.Total, len(res.Entries))
	}
	if e := res.Entries[0]; e.Key != "profile:u2" || e.Score != 3.5 || e.Fields["username"] != "ana" {
		t.Errorf("entry[0] = %+v", e)
	}

	tail := strings.Join(got[2:], " ")
	if tail != "RETURN 2 username age WITHSCORES LIMIT 20 20 DIALECT 2" {
		t.Errorf("args tail = %q", tail)
	}
}

func TestSearchText_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "profiles", Term: "*", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSearchText_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		res  rueidis.RedisResult
		want error
	}{
		{"server error", mock.Result(mock.RedisError("Syntax error at offset 3")), db.ErrRejected},
		{"transport error", mock.ErrorResult(errors.New("connection reset by peer")), db.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
				Return(tt.res)

			s := NewStoreForTest(c)
			_, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "profiles", Term: "*", Limit: 20})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !isDBError(err) {
				t.Errorf("expected db.Error, got %T", err)
			}
		})
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.SearchText(ctx, &db.TextQuery{Limit: 1}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx"}); err == nil {
		t.Error("expected error for zero limit")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Limit: 1, Fields: []string{"a"}}); err == nil {
		t.Error("expected error for weights mismatch")
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
