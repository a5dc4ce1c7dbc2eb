package parser

import (
	"testing"

	"github.com/ardnew/lunar/lang/ast"
)

func TestStack_PushPop(t *testing.T) {
	var s Stack

	s.PushSingle(&ast.Nil{})
	s.PushRepetition([]ast.Node{&ast.Number{Value: 2}})
	s.Prepend(&ast.Number{Value: 1})
	s.PushOptional(nil)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	if n := s.PopOptional(); n != nil {
		t.Errorf("PopOptional() = %v, want nil", n)
	}

	rep := s.PopRepetition()
	if len(rep) != 2 || rep[0].String() != "Number(1.0)" || rep[1].String() != "Number(2.0)" {
		t.Errorf("PopRepetition() = %v", rep)
	}

	if n := s.PopSingle(); n.String() != "Nil" {
		t.Errorf("PopSingle() = %v, want Nil", n)
	}

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStack_Misuse(t *testing.T) {
	tests := []struct {
		name  string
		run   func(*Stack)
		empty bool
		want  Tag
		got   Tag
	}{
		{"pop empty", func(s *Stack) { s.PopSingle() }, true, TagSingle, TagSingle},
		{"wrong tag", func(s *Stack) {
			s.PushRepetition(nil)
			s.PopSingle()
		}, false, TagSingle, TagRepetition},
		{"optional as single", func(s *Stack) {
			s.PushOptional(&ast.Nil{})
			s.PopRepetition()
		}, false, TagRepetition, TagOptional},
		{"prepend to single", func(s *Stack) {
			s.PushSingle(&ast.Nil{})
			s.Prepend(&ast.Nil{})
		}, false, TagRepetition, TagSingle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				ie, ok := recover().(*InternalError)
				if !ok {
					t.Fatal("expected *InternalError panic")
				}

				if ie.Empty != tt.empty || ie.Want != tt.want || (!tt.empty && ie.Got != tt.got) {
					t.Errorf("InternalError = %+v", ie)
				}

				if ie.Error() == "" {
					t.Error("empty error message")
				}
			}()

			var s Stack
			tt.run(&s)
		})
	}
}
