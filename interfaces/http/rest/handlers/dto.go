package handlers

import (
	"time"

	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
)

// boardResponse is the wire shape of a board
type boardResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBoardResponse(board *aggregates.Board) boardResponse {
	return boardResponse{
		ID:        board.ID().String(),
		Name:      board.Name(),
		CreatedAt: board.CreatedAt().Format(time.RFC3339),
		UpdatedAt: board.UpdatedAt().Format(time.RFC3339),
	}
}

// nodeResponse is the wire shape of a canvas node. Variant-specific
// fields are omitted when empty.
type nodeResponse struct {
	ID               string   `json:"id"`
	BoardID          string   `json:"board_id"`
	Kind             string   `json:"kind"`
	X                float64  `json:"x"`
	Y                float64  `json:"y"`
	Title            string   `json:"title,omitempty"`
	Model            string   `json:"model,omitempty"`
	ParentID         string   `json:"parent_id,omitempty"`
	InheritedContext []string `json:"inherited_context,omitempty"`
	HasAttachedImage bool     `json:"has_attached_image,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	NoteText         string   `json:"note_text,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func toNodeResponse(node *entities.Node) nodeResponse {
	resp := nodeResponse{
		ID:               node.ID().String(),
		BoardID:          node.BoardID().String(),
		Kind:             string(node.Kind()),
		X:                node.Position().X,
		Y:                node.Position().Y,
		Title:            node.Title(),
		Model:            node.Model(),
		InheritedContext: node.InheritedContext().Strings(),
		HasAttachedImage: node.HasAttachedImage(),
		ImageURL:         node.ImageURL(),
		NoteText:         node.NoteText(),
		CreatedAt:        node.CreatedAt().Format(time.RFC3339),
		UpdatedAt:        node.UpdatedAt().Format(time.RFC3339),
	}
	if !node.ParentID().IsZero() {
		resp.ParentID = node.ParentID().String()
	}
	return resp
}

func toNodeResponses(nodes []*entities.Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, toNodeResponse(node))
	}
	return out
}

// linkResponse is the wire shape of a context link
type linkResponse struct {
	ID           string `json:"id"`
	BoardID      string `json:"board_id"`
	SourceID     string `json:"source_id"`
	TargetID     string `json:"target_id"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toLinkResponse(link *entities.ContextLink) linkResponse {
	return linkResponse{
		ID:           link.ID().String(),
		BoardID:      link.BoardID().String(),
		SourceID:     link.SourceID().String(),
		TargetID:     link.TargetID().String(),
		SourceHandle: link.SourceHandle(),
		TargetHandle: link.TargetHandle(),
		CreatedAt:    link.CreatedAt().Format(time.RFC3339),
	}
}

func toLinkResponses(links []*entities.ContextLink) []linkResponse {
	out := make([]linkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, toLinkResponse(link))
	}
	return out
}

// messageResponse is the wire shape of a conversation turn
type messageResponse struct {
	ID        string `json:"id"`
	BlockID   string `json:"block_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toMessageResponse(message *entities.Message) messageResponse {
	return messageResponse{
		ID:        message.ID().String(),
		BlockID:   message.BlockID().String(),
		Role:      string(message.Role()),
		Content:   message.Content(),
		CreatedAt: message.CreatedAt().Format(time.RFC3339),
	}
}

func toMessageResponses(messages []*entities.Message) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, toMessageResponse(message))
	}
	return out
}
