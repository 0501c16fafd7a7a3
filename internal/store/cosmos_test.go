package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/model"
)

type fakeContainer struct {
	pages     [][][]byte
	queryErr  error
	upserted  [][]byte
	upsertErr error
	readErr   error

	lastQuery  string
	lastParams []azcosmos.QueryParameter
	lastPK     azcosmos.PartitionKey
	upsertPKs  []azcosmos.PartitionKey
}

func (f *fakeContainer) NewQueryItemsPager(query string, pk azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse] {
	f.lastQuery = query
	f.lastPK = pk
	if o != nil {
		f.lastParams = o.QueryParameters
	}
	next := 0
	return runtime.NewPager(runtime.PagingHandler[azcosmos.QueryItemsResponse]{
		More: func(azcosmos.QueryItemsResponse) bool {
			return next < len(f.pages)
		},
		Fetcher: func(context.Context, *azcosmos.QueryItemsResponse) (azcosmos.QueryItemsResponse, error) {
			if f.queryErr != nil {
				return azcosmos.QueryItemsResponse{}, f.queryErr
			}
			page := f.pages[next]
			next++
			return azcosmos.QueryItemsResponse{Items: page}, nil
		},
	})
}

func (f *fakeContainer) UpsertItem(_ context.Context, pk azcosmos.PartitionKey, item []byte, _ *azcosmos.ItemOptions) (azcosmos.ItemResponse, error) {
	if f.upsertErr != nil {
		return azcosmos.ItemResponse{}, f.upsertErr
	}
	f.upserted = append(f.upserted, item)
	f.upsertPKs = append(f.upsertPKs, pk)
	return azcosmos.ItemResponse{}, nil
}

func (f *fakeContainer) Read(context.Context, *azcosmos.ReadContainerOptions) (azcosmos.ContainerResponse, error) {
	return azcosmos.ContainerResponse{}, f.readErr
}

func mustDoc(t *testing.T, d cosmosDoc) []byte {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	return b
}

func TestCosmos_GetAnswer_Found(t *testing.T) {
	fc := &fakeContainer{pages: [][][]byte{
		{},
		{mustDoc(t, cosmosDoc{ID: "x", QuestionID: "question_04", Category: "Do_More", Text: "Hire a bookkeeper."})},
	}}
	s := &CosmosStore{container: fc}

	a, err := s.GetAnswer(context.Background(), "question_04", "Do_More")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Hire a bookkeeper.", a.Text)
	assert.Equal(t, cosmosAnswerQuery, fc.lastQuery)
	require.Len(t, fc.lastParams, 2)
	assert.Equal(t, "question_04", fc.lastParams[0].Value)
	assert.Equal(t, "Do_More", fc.lastParams[1].Value)
	assert.Equal(t, azcosmos.NewPartitionKey(), fc.lastPK)
}

func TestCosmos_GetAnswer_PartitionScope(t *testing.T) {
	tests := []struct {
		partitionKey string
		want         azcosmos.PartitionKey
	}{
		{"", azcosmos.NewPartitionKey()},
		{"question_id", azcosmos.NewPartitionKeyString("question_04")},
		{"category", azcosmos.NewPartitionKeyString("Do_More")},
		{"id", azcosmos.NewPartitionKey()},
	}
	for _, tt := range tests {
		t.Run("pk="+tt.partitionKey, func(t *testing.T) {
			fc := &fakeContainer{pages: [][][]byte{{}}}
			s := &CosmosStore{container: fc, partitionKey: tt.partitionKey}

			_, err := s.GetAnswer(context.Background(), "question_04", "Do_More")
			require.NoError(t, err)
			assert.Equal(t, tt.want, fc.lastPK)
		})
	}
}

func TestParsePartitionKey(t *testing.T) {
	pk, err := parsePartitionKey("/question_id")
	require.NoError(t, err)
	assert.Equal(t, "question_id", pk)

	pk, err = parsePartitionKey("")
	require.NoError(t, err)
	assert.Empty(t, pk)

	_, err = parsePartitionKey("/tenant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported partition key")
}

func TestCosmos_GetAnswer_Empty(t *testing.T) {
	s := &CosmosStore{container: &fakeContainer{pages: [][][]byte{{}}}}

	a, err := s.GetAnswer(context.Background(), "question_04", "Do_More")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestCosmos_GetAnswer_QueryError(t *testing.T) {
	s := &CosmosStore{container: &fakeContainer{pages: [][][]byte{{}}, queryErr: errors.New("403 forbidden")}}

	_, err := s.GetAnswer(context.Background(), "question_04", "Do_More")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cosmos: query question_04/Do_More")
}

func TestCosmos_PutAnswers(t *testing.T) {
	fc := &fakeContainer{}
	s := &CosmosStore{container: fc, partitionKey: "question_id"}

	n, err := s.PutAnswers(context.Background(), []model.KnowledgeAnswer{
		{QuestionID: "question_00", Category: "Keep_Doing", Text: "Keep it up."},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, fc.upserted, 1)

	var doc cosmosDoc
	require.NoError(t, json.Unmarshal(fc.upserted[0], &doc))
	assert.Equal(t, AnswerID("question_00", "Keep_Doing"), doc.ID)
	assert.Equal(t, "Keep it up.", doc.Text)
	assert.Equal(t, []azcosmos.PartitionKey{azcosmos.NewPartitionKeyString("question_00")}, fc.upsertPKs)
}

func TestCosmos_PutAnswers_PartitionByCategory(t *testing.T) {
	fc := &fakeContainer{}
	s := &CosmosStore{container: fc, partitionKey: "category"}

	_, err := s.PutAnswers(context.Background(), []model.KnowledgeAnswer{
		{QuestionID: "question_00", Category: "Keep_Doing", Text: "Keep it up."},
	})
	require.NoError(t, err)
	assert.Equal(t, []azcosmos.PartitionKey{azcosmos.NewPartitionKeyString("Keep_Doing")}, fc.upsertPKs)
}

func TestCosmos_PutAnswers_NeedsPartitionKey(t *testing.T) {
	fc := &fakeContainer{}
	s := &CosmosStore{container: fc}

	n, err := s.PutAnswers(context.Background(), []model.KnowledgeAnswer{{QuestionID: "q", Category: "c"}})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fc.upserted)
	assert.Contains(t, err.Error(), "partition key field is required")
}

func TestCosmos_PutAnswers_Error(t *testing.T) {
	s := &CosmosStore{container: &fakeContainer{upsertErr: errors.New("throttled")}, partitionKey: "id"}

	n, err := s.PutAnswers(context.Background(), []model.KnowledgeAnswer{{QuestionID: "q", Category: "c"}})
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestCosmos_Ping(t *testing.T) {
	s := &CosmosStore{container: &fakeContainer{}}
	require.NoError(t, s.Ping(context.Background()))

	s = &CosmosStore{container: &fakeContainer{readErr: errors.New("not found")}}
	require.Error(t, s.Ping(context.Background()))
}

func TestNewCosmos_RequiresCredentials(t *testing.T) {
	_, err := NewCosmos(CosmosConfig{Database: "db", Container: "kb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint and key are required")

	_, err = NewCosmos(CosmosConfig{Endpoint: "https://kb.documents.azure.com:443/", Key: "a2V5", Database: "db", Container: "kb", PartitionKey: "tenant"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported partition key")
}
