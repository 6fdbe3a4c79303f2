package grades

import (
	"testing"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
)

func TestSummarizeContent(t *testing.T) {
	cases := []struct {
		name string
		tree *brightspace.ContentTree
		want ContentSummary
	}{
		{
			name: "nil tree",
			tree: nil,
			want: ContentSummary{},
		},
		{
			name: "empty tree",
			tree: &brightspace.ContentTree{},
			want: ContentSummary{},
		},
		{
			name: "syllabus in module title",
			tree: &brightspace.ContentTree{
				Modules: []brightspace.ContentModule{
					{Title: "SYLLABUS Y GUÍAS", Topics: []brightspace.ContentTopic{
						{Title: "guia.pdf", TypeIdentifier: "File"},
					}},
				},
			},
			want: ContentSummary{HasSyllabus: true, DocumentCount: 1},
		},
		{
			name: "syllabus in file topic title",
			tree: &brightspace.ContentTree{
				Modules: []brightspace.ContentModule{
					{Title: "Unidad 1", Topics: []brightspace.ContentTopic{
						{Title: "Syllabus 2025.pdf", TypeIdentifier: "File"},
						{Title: "clase grabada", TypeIdentifier: "Link"},
					}},
				},
			},
			want: ContentSummary{HasSyllabus: true, DocumentCount: 1},
		},
		{
			name: "syllabus in non-file topic is ignored",
			tree: &brightspace.ContentTree{
				Modules: []brightspace.ContentModule{
					{Title: "Unidad 1", Topics: []brightspace.ContentTopic{
						{Title: "syllabus (enlace)", TypeIdentifier: "Link"},
					}},
				},
			},
			want: ContentSummary{},
		},
		{
			name: "counts files across modules",
			tree: &brightspace.ContentTree{
				Modules: []brightspace.ContentModule{
					{Title: "Unidad 1", Topics: []brightspace.ContentTopic{
						{Title: "a.pdf", TypeIdentifier: "File"},
						{Title: "b.pdf", TypeIdentifier: "File"},
					}},
					{Title: "Unidad 2", Topics: []brightspace.ContentTopic{
						{Title: "c.docx", TypeIdentifier: "File"},
					}},
				},
			},
			want: ContentSummary{DocumentCount: 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SummarizeContent(tc.tree); got != tc.want {
				t.Errorf("SummarizeContent() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
