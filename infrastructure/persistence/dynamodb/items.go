package dynamodb

import (
	"fmt"
	"time"

	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
)

// Single-table layout. Boards hang off their owner, everything else hangs
// off its board or block, and GSI1 gives direct lookup by entity ID.
//
//	board    PK=USER#<userID>    SK=BOARD#<boardID>
//	node     PK=BOARD#<boardID>  SK=NODE#<nodeID>
//	link     PK=BOARD#<boardID>  SK=LINK#<sourceID>#<targetID>
//	message  PK=BLOCK#<blockID>  SK=MSG#<seq>#<messageID>
//	quote    PK=BLOCK#<blockID>  SK=QUOTE
//
// The link SK doubles as the uniqueness constraint for the ordered
// (source, target) pair: a conditional put on attribute_not_exists(PK)
// is the storage-level race net. GSI2 keys links by source node and GSI3
// by target node so node deletion can collect its edges without a scan.

const (
	gsi1IndexName = "GSI1"
	gsi2IndexName = "GSI2"
	gsi3IndexName = "GSI3"
)

func boardPK(userID string) string          { return fmt.Sprintf("USER#%s", userID) }
func boardSK(boardID string) string         { return fmt.Sprintf("BOARD#%s", boardID) }
func nodePK(boardID string) string          { return fmt.Sprintf("BOARD#%s", boardID) }
func nodeSK(nodeID string) string           { return fmt.Sprintf("NODE#%s", nodeID) }
func linkSK(sourceID, targetID string) string {
	return fmt.Sprintf("LINK#%s#%s", sourceID, targetID)
}
func messagePK(blockID string) string { return fmt.Sprintf("BLOCK#%s", blockID) }

// messageSK orders a block's turns by write time. The zero-padded
// nanosecond sequence keeps lexical order equal to chronological order.
func messageSK(createdAt time.Time, messageID string) string {
	return fmt.Sprintf("MSG#%020d#%s", createdAt.UnixNano(), messageID)
}

type boardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	BoardID    string `dynamodbav:"BoardID"`
	UserID     string `dynamodbav:"UserID"`
	Name       string `dynamodbav:"Name"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func newBoardItem(board *aggregates.Board) boardItem {
	return boardItem{
		PK:         boardPK(board.UserID()),
		SK:         boardSK(board.ID().String()),
		GSI1PK:     fmt.Sprintf("BOARDID#%s", board.ID().String()),
		GSI1SK:     "METADATA",
		EntityType: "BOARD",
		BoardID:    board.ID().String(),
		UserID:     board.UserID(),
		Name:       board.Name(),
		CreatedAt:  board.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  board.UpdatedAt().Format(time.RFC3339Nano),
	}
}

func (i boardItem) toBoard() (*aggregates.Board, error) {
	boardID, err := valueobjects.NewBoardIDFromString(i.BoardID)
	if err != nil {
		return nil, fmt.Errorf("invalid board ID in item: %w", err)
	}
	createdAt, updatedAt := parseTimestamps(i.CreatedAt, i.UpdatedAt)
	return aggregates.ReconstructBoard(boardID, i.UserID, i.Name, createdAt, updatedAt)
}

type nodeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	GSI1PK     string  `dynamodbav:"GSI1PK"`
	GSI1SK     string  `dynamodbav:"GSI1SK"`
	EntityType string  `dynamodbav:"EntityType"`
	NodeID     string  `dynamodbav:"NodeID"`
	BoardID    string  `dynamodbav:"BoardID"`
	UserID     string  `dynamodbav:"UserID"`
	Kind       string  `dynamodbav:"Kind"`
	PositionX  float64 `dynamodbav:"PositionX"`
	PositionY  float64 `dynamodbav:"PositionY"`

	Title            string   `dynamodbav:"Title,omitempty"`
	Model            string   `dynamodbav:"Model,omitempty"`
	ParentID         string   `dynamodbav:"ParentID,omitempty"`
	InheritedContext []string `dynamodbav:"InheritedContext,omitempty"`
	HasAttachedImage bool     `dynamodbav:"HasAttachedImage"`
	ImageURL         string   `dynamodbav:"ImageURL,omitempty"`
	NoteText         string   `dynamodbav:"NoteText,omitempty"`

	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
	Version   int    `dynamodbav:"Version"`
}

func newNodeItem(node *entities.Node) nodeItem {
	item := nodeItem{
		PK:               nodePK(node.BoardID().String()),
		SK:               nodeSK(node.ID().String()),
		GSI1PK:           fmt.Sprintf("NODEID#%s", node.ID().String()),
		GSI1SK:           "METADATA",
		EntityType:       "NODE",
		NodeID:           node.ID().String(),
		BoardID:          node.BoardID().String(),
		UserID:           node.UserID(),
		Kind:             string(node.Kind()),
		PositionX:        node.Position().X,
		PositionY:        node.Position().Y,
		Title:            node.Title(),
		Model:            node.Model(),
		InheritedContext: node.InheritedContext().Strings(),
		HasAttachedImage: node.HasAttachedImage(),
		ImageURL:         node.ImageURL(),
		NoteText:         node.NoteText(),
		CreatedAt:        node.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:        node.UpdatedAt().Format(time.RFC3339Nano),
		Version:          node.Version(),
	}
	if !node.ParentID().IsZero() {
		item.ParentID = node.ParentID().String()
	}
	return item
}

func (i nodeItem) toNode() (*entities.Node, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(i.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node ID in item: %w", err)
	}
	boardID, err := valueobjects.NewBoardIDFromString(i.BoardID)
	if err != nil {
		return nil, fmt.Errorf("invalid board ID in item: %w", err)
	}

	var parentID valueobjects.NodeID
	if i.ParentID != "" {
		parentID, err = valueobjects.NewNodeIDFromString(i.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID in item: %w", err)
		}
	}

	inherited, err := valueobjects.NewContextListFromStrings(i.InheritedContext)
	if err != nil {
		return nil, fmt.Errorf("invalid inherited context in item: %w", err)
	}

	createdAt, updatedAt := parseTimestamps(i.CreatedAt, i.UpdatedAt)
	return entities.ReconstructNode(
		nodeID,
		boardID,
		i.UserID,
		entities.NodeKind(i.Kind),
		valueobjects.NewPosition(i.PositionX, i.PositionY),
		i.Title,
		i.Model,
		parentID,
		inherited,
		i.HasAttachedImage,
		i.ImageURL,
		i.NoteText,
		createdAt,
		updatedAt,
		i.Version,
	)
}

type linkItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	GSI3PK     string `dynamodbav:"GSI3PK"`
	GSI3SK     string `dynamodbav:"GSI3SK"`
	EntityType string `dynamodbav:"EntityType"`
	LinkID     string `dynamodbav:"LinkID"`
	BoardID    string `dynamodbav:"BoardID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`

	SourceHandle string `dynamodbav:"SourceHandle,omitempty"`
	TargetHandle string `dynamodbav:"TargetHandle,omitempty"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

func newLinkItem(link *entities.ContextLink) linkItem {
	return linkItem{
		PK:           nodePK(link.BoardID().String()),
		SK:           linkSK(link.SourceID().String(), link.TargetID().String()),
		GSI1PK:       fmt.Sprintf("LINKID#%s", link.ID().String()),
		GSI1SK:       "METADATA",
		GSI2PK:       fmt.Sprintf("NODE#%s", link.SourceID().String()),
		GSI2SK:       fmt.Sprintf("LINK#%s", link.ID().String()),
		GSI3PK:       fmt.Sprintf("TARGET#%s", link.TargetID().String()),
		GSI3SK:       fmt.Sprintf("LINK#%s", link.ID().String()),
		EntityType:   "LINK",
		LinkID:       link.ID().String(),
		BoardID:      link.BoardID().String(),
		SourceID:     link.SourceID().String(),
		TargetID:     link.TargetID().String(),
		SourceHandle: link.SourceHandle(),
		TargetHandle: link.TargetHandle(),
		CreatedAt:    link.CreatedAt().Format(time.RFC3339Nano),
	}
}

func (i linkItem) toLink() (*entities.ContextLink, error) {
	linkID, err := valueobjects.NewLinkIDFromString(i.LinkID)
	if err != nil {
		return nil, fmt.Errorf("invalid link ID in item: %w", err)
	}
	boardID, err := valueobjects.NewBoardIDFromString(i.BoardID)
	if err != nil {
		return nil, fmt.Errorf("invalid board ID in item: %w", err)
	}
	sourceID, err := valueobjects.NewNodeIDFromString(i.SourceID)
	if err != nil {
		return nil, fmt.Errorf("invalid source ID in item: %w", err)
	}
	targetID, err := valueobjects.NewNodeIDFromString(i.TargetID)
	if err != nil {
		return nil, fmt.Errorf("invalid target ID in item: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return entities.ReconstructContextLink(
		linkID, boardID, sourceID, targetID,
		i.SourceHandle, i.TargetHandle, createdAt,
	), nil
}

type messageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	MessageID  string `dynamodbav:"MessageID"`
	BlockID    string `dynamodbav:"BlockID"`
	Role       string `dynamodbav:"Role"`
	Content    string `dynamodbav:"Content"`

	HiddenContext string `dynamodbav:"HiddenContext,omitempty"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
}

func newMessageItem(message *entities.Message) messageItem {
	return messageItem{
		PK:            messagePK(message.BlockID().String()),
		SK:            messageSK(message.CreatedAt(), message.ID().String()),
		GSI1PK:        fmt.Sprintf("MSGID#%s", message.ID().String()),
		GSI1SK:        "METADATA",
		EntityType:    "MESSAGE",
		MessageID:     message.ID().String(),
		BlockID:       message.BlockID().String(),
		Role:          string(message.Role()),
		Content:       message.Content(),
		HiddenContext: message.HiddenContext(),
		CreatedAt:     message.CreatedAt().Format(time.RFC3339Nano),
	}
}

func (i messageItem) toMessage() (*entities.Message, error) {
	messageID, err := valueobjects.NewMessageIDFromString(i.MessageID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID in item: %w", err)
	}
	blockID, err := valueobjects.NewNodeIDFromString(i.BlockID)
	if err != nil {
		return nil, fmt.Errorf("invalid block ID in item: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return entities.ReconstructMessage(
		messageID, blockID,
		entities.MessageRole(i.Role),
		i.Content, i.HiddenContext, createdAt,
	), nil
}

type quoteItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	QuoteID         string `dynamodbav:"QuoteID"`
	SourceMessageID string `dynamodbav:"SourceMessageID"`
	TargetBlockID   string `dynamodbav:"TargetBlockID"`
	SpanStart       int    `dynamodbav:"SpanStart"`
	SpanEnd         int    `dynamodbav:"SpanEnd"`
	SpanText        string `dynamodbav:"SpanText"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
}

func newQuoteItem(quote *entities.QuoteLink) quoteItem {
	return quoteItem{
		PK:              messagePK(quote.TargetBlockID().String()),
		SK:              "QUOTE",
		EntityType:      "QUOTE",
		QuoteID:         quote.ID().String(),
		SourceMessageID: quote.SourceMessageID().String(),
		TargetBlockID:   quote.TargetBlockID().String(),
		SpanStart:       quote.Span().Start(),
		SpanEnd:         quote.Span().End(),
		SpanText:        quote.Span().Text(),
		CreatedAt:       quote.CreatedAt().Format(time.RFC3339Nano),
	}
}

func (i quoteItem) toQuote() (*entities.QuoteLink, error) {
	quoteID, err := valueobjects.NewLinkIDFromString(i.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("invalid quote ID in item: %w", err)
	}
	sourceMessageID, err := valueobjects.NewMessageIDFromString(i.SourceMessageID)
	if err != nil {
		return nil, fmt.Errorf("invalid source message ID in item: %w", err)
	}
	targetBlockID, err := valueobjects.NewNodeIDFromString(i.TargetBlockID)
	if err != nil {
		return nil, fmt.Errorf("invalid target block ID in item: %w", err)
	}
	span, err := valueobjects.NewQuoteSpan(i.SpanStart, i.SpanEnd, i.SpanText)
	if err != nil {
		return nil, fmt.Errorf("invalid quote span in item: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return entities.ReconstructQuoteLink(quoteID, sourceMessageID, targetBlockID, span, createdAt), nil
}

func parseTimestamps(created, updated string) (time.Time, time.Time) {
	createdAt, _ := time.Parse(time.RFC3339Nano, created)
	updatedAt, _ := time.Parse(time.RFC3339Nano, updated)
	return createdAt, updatedAt
}
