package grades

import (
	"strings"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
)

// topicTypeFile identifies uploaded documents in a content tree.
const topicTypeFile = "File"

// ContentSummary is what the sync engine derives from a class content tree.
type ContentSummary struct {
	HasSyllabus   bool
	DocumentCount int
}

// SummarizeContent walks a content tree counting file topics and detecting a
// syllabus: present when any module title or file-topic title contains
// "syllabus", case-insensitively. A nil or empty tree summarizes to zero.
func SummarizeContent(tree *brightspace.ContentTree) ContentSummary {
	var summary ContentSummary
	if tree == nil {
		return summary
	}

	for _, module := range tree.Modules {
		if containsSyllabus(module.Title) {
			summary.HasSyllabus = true
		}
		for _, topic := range module.Topics {
			if topic.TypeIdentifier != topicTypeFile {
				continue
			}
			summary.DocumentCount++
			if containsSyllabus(topic.Title) {
				summary.HasSyllabus = true
			}
		}
	}
	return summary
}

func containsSyllabus(title string) bool {
	return strings.Contains(strings.ToLower(title), "syllabus")
}
