// Package message provides ACP content block and session update types.
package message

import "encoding/json"

// Block type constants.
const (
	BlockTypeText         = "text"
	BlockTypeImage        = "image"
	BlockTypeResource     = "resource"
	BlockTypeResourceLink = "resource_link"
)

// ContentBlock represents a block of content within a prompt or update.
type ContentBlock interface {
	BlockType() string
}

// Compile-time verification that all content block types implement ContentBlock.
var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ImageBlock)(nil)
	_ ContentBlock = (*ResourceBlock)(nil)
	_ ContentBlock = (*ResourceLinkBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BlockType implements the ContentBlock interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// NewTextBlock creates a text block.
func NewTextBlock(text string) *TextBlock {
	return &TextBlock{Type: BlockTypeText, Text: text}
}

// ImageBlock contains base64 image data.
type ImageBlock struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// BlockType implements the ContentBlock interface.
func (b *ImageBlock) BlockType() string { return BlockTypeImage }

// EmbeddedResource is the text of a file sent inline with a prompt.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ResourceBlock embeds a resource's contents.
type ResourceBlock struct {
	Type     string           `json:"type"`
	Resource EmbeddedResource `json:"resource"`
}

// BlockType implements the ContentBlock interface.
func (b *ResourceBlock) BlockType() string { return BlockTypeResource }

// ResourceLinkBlock refers to a resource the agent reads itself.
type ResourceLinkBlock struct {
	Type     string `json:"type"`
	URI      string `json:"uri"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
}

// BlockType implements the ContentBlock interface.
func (b *ResourceLinkBlock) BlockType() string { return BlockTypeResourceLink }

// TextOf returns the visible text of a block, or "" for non-text blocks.
func TextOf(block ContentBlock) string {
	if tb, ok := block.(*TextBlock); ok {
		return tb.Text
	}

	return ""
}

// UnmarshalContentBlock unmarshals a single content block from JSON.
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	var typeHolder struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &typeHolder); err != nil {
		return nil, err
	}

	switch typeHolder.Type {
	case BlockTypeImage:
		var block ImageBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	case BlockTypeResource:
		var block ResourceBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	case BlockTypeResourceLink:
		var block ResourceLinkBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	default:
		// Text and unknown types both decode as text; unknown types carry
		// no visible text.
		var block TextBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		if typeHolder.Type != BlockTypeText {
			block.Text = ""
		}

		return &block, nil
	}
}
