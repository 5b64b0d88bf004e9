// Package dynamodb implements the NoteStore on a single-table DynamoDB
// layout: PK "USER#<tenant>", SK "NOTE#<id>". The whole collection for
// a tenant is one partition, which fits the workload: full fetches
// after every write over tens to low thousands of notes.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stuffmd/domain/note"
	pkgerrors "stuffmd/pkg/errors"
	"stuffmd/pkg/utils"
)

// NoteStore implements the store gateway on DynamoDB
type NoteStore struct {
	client    *dynamodb.Client
	tableName string
	tenantID  string
	logger    *zap.Logger
}

// NewNoteStore creates a DynamoDB-backed note store
func NewNoteStore(client *dynamodb.Client, tableName, tenantID string, logger *zap.Logger) *NoteStore {
	return &NoteStore{
		client:    client,
		tableName: tableName,
		tenantID:  tenantID,
		logger:    logger,
	}
}

// noteItem represents the DynamoDB item structure for a note
type noteItem struct {
	PK           string        `dynamodbav:"PK"`
	SK           string        `dynamodbav:"SK"`
	EntityType   string        `dynamodbav:"EntityType"`
	NoteID       string        `dynamodbav:"NoteID"`
	NoteName     string        `dynamodbav:"NoteName"`
	Content      string        `dynamodbav:"Content"`
	Title        string        `dynamodbav:"Title"`
	Summary      string        `dynamodbav:"Summary"`
	CategoryPath []string      `dynamodbav:"CategoryPath"`
	Tags         []string      `dynamodbav:"Tags"`
	CreatedAt    string        `dynamodbav:"CreatedAt"`
	AIGenerated  *snapshotItem `dynamodbav:"AIGenerated,omitempty"`
}

type snapshotItem struct {
	Title     string `dynamodbav:"Title"`
	Summary   string `dynamodbav:"Summary"`
	Rationale string `dynamodbav:"Rationale"`
}

func (s *NoteStore) pk() string {
	return fmt.Sprintf("USER#%s", s.tenantID)
}

func sk(id string) string {
	return fmt.Sprintf("NOTE#%s", id)
}

// FetchAll returns the tenant's full collection, newest first
func (s *NoteStore) FetchAll(ctx context.Context, token string) ([]*note.Note, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(s.pk())).
		And(expression.Key("SK").BeginsWith("NOTE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var notes []*note.Note
	var lastKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query notes: %w", err)
		}

		for _, raw := range result.Items {
			var item noteItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("Failed to unmarshal note item", zap.Error(err))
				continue
			}
			notes = append(notes, item.toNote())
		}

		lastKey = result.LastEvaluatedKey
		if len(lastKey) == 0 {
			break
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Date.After(notes[j].Date)
	})
	return notes, nil
}

// Create persists a new note under a fresh id
func (s *NoteStore) Create(ctx context.Context, token string, n *note.Note) (*note.Note, error) {
	created := n.Clone()
	created.ID = uuid.New().String()

	av, err := attributevalue.MarshalMap(s.toItem(created))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal note: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		s.logger.Error("Failed to save note to DynamoDB",
			zap.Error(err),
			zap.String("noteID", created.ID),
		)
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	s.logger.Debug("Note saved",
		zap.String("noteID", created.ID),
		zap.String("SK", sk(created.ID)),
	)
	return created, nil
}

// Update applies the patch's set fields with a single UpdateItem. The
// condition rejects updates to ids that were never written.
func (s *NoteStore) Update(ctx context.Context, token, id string, patch note.Patch) (*note.Note, error) {
	if patch.IsEmpty() {
		return nil, pkgerrors.NewValidationError("update carries no changes")
	}

	update := expression.UpdateBuilder{}
	if patch.Title != nil {
		update = update.Set(expression.Name("Title"), expression.Value(*patch.Title))
	}
	if patch.Content != nil {
		update = update.Set(expression.Name("Content"), expression.Value(*patch.Content))
	}
	if patch.Summary != nil {
		update = update.Set(expression.Name("Summary"), expression.Value(*patch.Summary))
	}
	if patch.CategoryPath != nil {
		update = update.Set(expression.Name("CategoryPath"), expression.Value([]string(patch.CategoryPath)))
	}
	if patch.Tags != nil {
		update = update.Set(expression.Name("Tags"), expression.Value(note.DedupeTags(*patch.Tags)))
	}
	if patch.AIGenerated != nil {
		update = update.Set(expression.Name("AIGenerated"), expression.Value(&snapshotItem{
			Title:     patch.AIGenerated.Title,
			Summary:   patch.AIGenerated.Summary,
			Rationale: patch.AIGenerated.Rationale,
		}))
	}

	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.pk()},
			"SK": &types.AttributeValueMemberS{Value: sk(id)},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError("note")
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	var item noteItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated note: %w", err)
	}
	return item.toNote(), nil
}

// Delete removes a note, failing NotFound for unknown ids
func (s *NoteStore) Delete(ctx context.Context, token, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.pk()},
			"SK": &types.AttributeValueMemberS{Value: sk(id)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewNotFoundError("note")
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.logger.Debug("Note deleted", zap.String("noteID", id))
	return nil
}

func (s *NoteStore) toItem(n *note.Note) noteItem {
	item := noteItem{
		PK:           s.pk(),
		SK:           sk(n.ID),
		EntityType:   "NOTE",
		NoteID:       n.ID,
		NoteName:     n.Name,
		Content:      n.Content,
		Title:        n.Title,
		Summary:      n.Summary,
		CategoryPath: []string(n.CategoryPath),
		Tags:         n.Tags,
		CreatedAt:    utils.FormatRFC3339(n.Date),
	}
	if n.AIGenerated != nil {
		item.AIGenerated = &snapshotItem{
			Title:     n.AIGenerated.Title,
			Summary:   n.AIGenerated.Summary,
			Rationale: n.AIGenerated.Rationale,
		}
	}
	return item
}

func (item noteItem) toNote() *note.Note {
	date, err := utils.ParseRFC3339(item.CreatedAt)
	if err != nil {
		date = time.Time{}
	}

	n := &note.Note{
		ID:           item.NoteID,
		Name:         item.NoteName,
		Content:      item.Content,
		Title:        item.Title,
		Summary:      item.Summary,
		CategoryPath: note.CategoryPath(item.CategoryPath),
		Tags:         item.Tags,
		Date:         date,
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if item.AIGenerated != nil {
		n.AIGenerated = &note.AISnapshot{
			Title:     item.AIGenerated.Title,
			Summary:   item.AIGenerated.Summary,
			Rationale: item.AIGenerated.Rationale,
		}
	}
	return n
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
