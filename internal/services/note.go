package services

import (
	"context"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

// NoteService handles note CRUD.
type NoteService struct {
	store store.Store
}

func NewNoteService(s store.Store) *NoteService { return &NoteService{store: s} }

func (s *NoteService) CreateNote(ctx context.Context, n *model.Note) (*model.Note, error) {
	return s.store.Notes().Create(ctx, n)
}

func (s *NoteService) GetNote(ctx context.Context, userID, noteID string) (*model.Note, error) {
	return s.store.Notes().Get(ctx, userID, noteID)
}

func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*model.Note, error) {
	return s.store.Notes().List(ctx, userID)
}

func (s *NoteService) UpdateNote(ctx context.Context, n *model.Note) (*model.Note, error) {
	return s.store.Notes().Update(ctx, n)
}

func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	return s.store.Notes().Delete(ctx, userID, noteID)
}
