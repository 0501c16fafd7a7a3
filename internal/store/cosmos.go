package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/model"
)

const cosmosAnswerQuery = `SELECT c.id, c.question_id, c.category, c.text FROM c WHERE c.question_id = @question_id AND c.category = @category`

// cosmosContainer is the subset of *azcosmos.ContainerClient the store uses.
type cosmosContainer interface {
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse]
	UpsertItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	Read(ctx context.Context, o *azcosmos.ReadContainerOptions) (azcosmos.ContainerResponse, error)
}

// CosmosConfig locates the knowledge container in Azure Cosmos DB.
type CosmosConfig struct {
	Endpoint  string
	Key       string
	Database  string
	Container string
	// PartitionKey is the document field the container is partitioned on:
	// question_id, category or id. Empty runs lookups across partitions.
	PartitionKey string
}

// CosmosStore implements Store on an Azure Cosmos DB container.
type CosmosStore struct {
	container    cosmosContainer
	partitionKey string
}

// cosmosDoc is the document layout in the container.
type cosmosDoc struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Category   string `json:"category"`
	Text       string `json:"text"`
}

// parsePartitionKey accepts a field name with or without the leading slash
// Cosmos uses for partition key paths.
func parsePartitionKey(path string) (string, error) {
	field := strings.TrimPrefix(strings.TrimSpace(path), "/")
	switch field {
	case "", "question_id", "category", "id":
		return field, nil
	default:
		return "", eris.Errorf("cosmos: unsupported partition key %q (want question_id, category or id)", path)
	}
}

// NewCosmos connects to the configured container using key auth.
func NewCosmos(cfg CosmosConfig) (*CosmosStore, error) {
	if cfg.Endpoint == "" || cfg.Key == "" {
		return nil, eris.New("cosmos: endpoint and key are required")
	}
	pk, err := parsePartitionKey(cfg.PartitionKey)
	if err != nil {
		return nil, err
	}
	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, eris.Wrap(err, "cosmos: key credential")
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, eris.Wrap(err, "cosmos: new client")
	}
	container, err := client.NewContainer(cfg.Database, cfg.Container)
	if err != nil {
		return nil, eris.Wrapf(err, "cosmos: container %s/%s", cfg.Database, cfg.Container)
	}
	return &CosmosStore{container: container, partitionKey: pk}, nil
}

// partitionValue returns the partition key value of doc.
func (s *CosmosStore) partitionValue(doc cosmosDoc) string {
	switch s.partitionKey {
	case "question_id":
		return doc.QuestionID
	case "category":
		return doc.Category
	default:
		return doc.ID
	}
}

// queryPartition scopes a lookup to one partition when the partition field
// is part of the lookup key. Otherwise the query fans out across partitions.
func (s *CosmosStore) queryPartition(questionID, category string) azcosmos.PartitionKey {
	switch s.partitionKey {
	case "question_id":
		return azcosmos.NewPartitionKeyString(questionID)
	case "category":
		return azcosmos.NewPartitionKeyString(category)
	default:
		return azcosmos.NewPartitionKey()
	}
}

func (s *CosmosStore) GetAnswer(ctx context.Context, questionID, category string) (*model.KnowledgeAnswer, error) {
	pager := s.container.NewQueryItemsPager(cosmosAnswerQuery, s.queryPartition(questionID, category), &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{Name: "@question_id", Value: questionID},
			{Name: "@category", Value: category},
		},
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "cosmos: query %s/%s", questionID, category)
		}
		for _, raw := range page.Items {
			var doc cosmosDoc
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, eris.Wrap(err, "cosmos: decode item")
			}
			return &model.KnowledgeAnswer{
				ID:         doc.ID,
				QuestionID: doc.QuestionID,
				Category:   doc.Category,
				Text:       doc.Text,
			}, nil
		}
	}
	return nil, nil
}

// PutAnswers upserts answers. Writes need a known partition key field.
func (s *CosmosStore) PutAnswers(ctx context.Context, answers []model.KnowledgeAnswer) (int, error) {
	if s.partitionKey == "" && len(answers) > 0 {
		return 0, eris.New("cosmos: a partition key field is required to write answers")
	}
	n := 0
	for _, a := range answers {
		doc := cosmosDoc{ID: a.ID, QuestionID: a.QuestionID, Category: a.Category, Text: a.Text}
		if doc.ID == "" {
			doc.ID = AnswerID(a.QuestionID, a.Category)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return n, eris.Wrap(err, "cosmos: encode item")
		}
		if _, err := s.container.UpsertItem(ctx, azcosmos.NewPartitionKeyString(s.partitionValue(doc)), data, nil); err != nil {
			return n, eris.Wrapf(err, "cosmos: upsert %s/%s", a.QuestionID, a.Category)
		}
		n++
	}
	return n, nil
}

func (s *CosmosStore) Ping(ctx context.Context) error {
	_, err := s.container.Read(ctx, nil)
	return eris.Wrap(err, "cosmos: read container")
}

// Migrate is a no-op; the container is provisioned outside this service.
func (s *CosmosStore) Migrate(context.Context) error { return nil }

func (s *CosmosStore) Close() error { return nil }
