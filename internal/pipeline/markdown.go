// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrDropped is returned under DropWholePDF when any page needs dropping.
var ErrDropped = errors.New("pipeline: document dropped")

// ContentBlock is one entry of content_list.json.
type ContentBlock struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	TextLevel  int    `json:"text_level,omitempty"`
	TextFormat string `json:"text_format,omitempty"`
	ImgPath    string `json:"img_path,omitempty"`
	PageIdx    int    `json:"page_idx"`
}

// Content list types.
const (
	ContentText     = "text"
	ContentImage    = "image"
	ContentTable    = "table"
	ContentEquation = "equation"
)

func (b *base) MakeMarkdown(imageDir string, drop DropMode, mode MakeMode) (string, error) {
	switch mode {
	case "":
		mode = MakeMMMarkdown
	case MakeMMMarkdown, MakeNLPMarkdown:
	default:
		return "", fmt.Errorf("make mode %q does not produce markdown", mode)
	}
	pages, err := b.keptPages(drop)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, p := range pages {
		for _, blk := range p.ParaBlocks {
			if s := blockMarkdown(blk, imageDir, mode); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

func blockMarkdown(blk Block, imageDir string, mode MakeMode) string {
	switch blk.Type {
	case BlockTitle:
		text := JoinLines(blk.Text())
		if text == "" {
			return ""
		}
		level := max(blk.Level, 1)
		return strings.Repeat("#", level) + " " + text
	case BlockText:
		return JoinLines(blk.Text())
	case BlockEquation:
		latex := strings.Join(blk.Text(), "\n")
		if latex == "" {
			return ""
		}
		return "$$\n" + latex + "\n$$"
	case BlockImage, BlockTable:
		if mode == MakeNLPMarkdown || blk.ImagePath == "" {
			return ""
		}
		return fmt.Sprintf("![](%s)", path.Join(imageDir, blk.ImagePath))
	}
	return ""
}

func (b *base) MakeContentList(imageDir string, drop DropMode) ([]ContentBlock, error) {
	pages, err := b.keptPages(drop)
	if err != nil {
		return nil, err
	}
	out := []ContentBlock{}
	for _, p := range pages {
		for _, blk := range p.ParaBlocks {
			cb := ContentBlock{PageIdx: p.PageIdx}
			switch blk.Type {
			case BlockTitle:
				cb.Type, cb.Text, cb.TextLevel = ContentText, JoinLines(blk.Text()), max(blk.Level, 1)
			case BlockText:
				cb.Type, cb.Text = ContentText, JoinLines(blk.Text())
			case BlockEquation:
				cb.Type, cb.Text, cb.TextFormat = ContentEquation, strings.Join(blk.Text(), "\n"), "latex"
			case BlockImage, BlockTable:
				cb.Type = ContentImage
				if blk.Type == BlockTable {
					cb.Type = ContentTable
				}
				if blk.ImagePath != "" {
					cb.ImgPath = path.Join(imageDir, blk.ImagePath)
				}
			default:
				continue
			}
			if cb.Type != ContentImage && cb.Type != ContentTable && cb.Text == "" {
				continue
			}
			out = append(out, cb)
		}
	}
	return out, nil
}

// keptPages applies drop to the parsed pages.
func (b *base) keptPages(drop DropMode) ([]PageInfo, error) {
	if b.mid == nil {
		return nil, ErrNotParsed
	}
	switch drop {
	case "", DropNone:
		return b.mid.PDFInfo, nil
	case DropSinglePage:
		kept := make([]PageInfo, 0, len(b.mid.PDFInfo))
		for _, p := range b.mid.PDFInfo {
			if !p.NeedDrop {
				kept = append(kept, p)
			}
		}
		return kept, nil
	case DropWholePDF:
		for _, p := range b.mid.PDFInfo {
			if p.NeedDrop {
				return nil, fmt.Errorf("%w: page %d: %s", ErrDropped, p.PageIdx, strings.Join(p.DropReason, ", "))
			}
		}
		return b.mid.PDFInfo, nil
	}
	return nil, fmt.Errorf("unknown drop mode %q", drop)
}

// JoinLines joins the lines of a paragraph with spaces. A word broken by a
// hyphen at the end of a line is rejoined, and CJK text is joined without a
// space.
func JoinLines(lines []string) string {
	var out string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if out == "" {
			out = l
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(out)
		first, _ := utf8.DecodeRuneInString(l)
		switch {
		case last == '-' && unicode.IsLower(first) && hyphenatedWord(out):
			out = out[:len(out)-1] + l
		case isCJK(last) && isCJK(first):
			out += l
		default:
			out += " " + l
		}
	}
	return out
}

// hyphenatedWord reports whether s ends with a letter followed by '-'.
func hyphenatedWord(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
	return unicode.IsLetter(r)
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
