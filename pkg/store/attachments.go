package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

const attachmentColumns = `
	attachments.id, attachments.kind, attachments.container_type, attachments.container_id,
	attachments.display_state, attachments.file_id,
	attachments.created_by, attachments.updated_by, attachments.deleted_by,
	attachments.created_at, attachments.updated_at, attachments.deleted_at
`

const fileColumns = `
	files.id, files.name, files.path, files.mime_type, files.size,
	files.created_by, files.updated_by, files.deleted_by,
	files.created_at, files.updated_at, files.deleted_at
`

func scanAttachment(scanner rowScanner) (*model.Attachment, error) {
	attachment := &model.Attachment{}
	err := scanner.Scan(
		&attachment.ID, &attachment.Kind, &attachment.ContainerType, &attachment.ContainerID,
		&attachment.DisplayState, &attachment.FileID,
		&attachment.CreatedBy, &attachment.UpdatedBy, &attachment.DeletedBy,
		&attachment.CreatedAt, &attachment.UpdatedAt, &attachment.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func scanFile(scanner rowScanner) (*model.File, error) {
	file := &model.File{}
	err := scanner.Scan(
		&file.ID, &file.Name, &file.Path, &file.MimeType, &file.Size,
		&file.CreatedBy, &file.UpdatedBy, &file.DeletedBy,
		&file.CreatedAt, &file.UpdatedAt, &file.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// AttachFile stores a file record and binds it to a container in one
// transaction. An existing active attachment in the same slot is soft-deleted
// first so the slot's unique constraint holds.
func (s *Store) AttachFile(ctx context.Context, idc *identity.Context, kind model.AttachmentKind, containerType model.ContainerType, containerID int64, file *model.File) (*model.Attachment, error) {
	if err := requireActor(idc); err != nil {
		return nil, err
	}
	actorID := idc.ActorID()

	var attachment *model.Attachment
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE attachments
			SET deleted_at = NOW(), deleted_by = $1, updated_at = NOW(), updated_by = $1
			WHERE kind = $2 AND container_type = $3 AND container_id = $4
				AND display_state = 'normal' AND deleted_at IS NULL
		`, actorID, kind, containerType, containerID)
		if err != nil {
			return fmt.Errorf("failed to replace existing attachment: %w", err)
		}

		var fileID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO files (name, path, mime_type, size, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id
		`, file.Name, file.Path, file.MimeType, file.Size, actorID).Scan(&fileID)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		file.ID = fileID

		row := tx.QueryRowContext(ctx, `
			INSERT INTO attachments (kind, container_type, container_id, display_state, file_id, created_by, updated_by)
			VALUES ($1, $2, $3, 'normal', $4, $5, $5)
			RETURNING `+attachmentColumns,
			kind, containerType, containerID, fileID, actorID,
		)
		attachment, err = scanAttachment(row)
		if err != nil {
			return fmt.Errorf("failed to create attachment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	attachment.File = file
	return attachment, nil
}

// GetAttachment loads the active attachment for a container slot with its file.
func (s *Store) GetAttachment(ctx context.Context, kind model.AttachmentKind, containerType model.ContainerType, containerID int64) (*model.Attachment, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s, %s
		FROM attachments
		JOIN files ON files.id = attachments.file_id AND files.deleted_at IS NULL
		WHERE attachments.kind = $1 AND attachments.container_type = $2 AND attachments.container_id = $3
			AND attachments.display_state = 'normal' AND attachments.deleted_at IS NULL
	`, attachmentColumns, fileColumns), kind, containerType, containerID)

	attachment := &model.Attachment{}
	file := &model.File{}
	err := row.Scan(
		&attachment.ID, &attachment.Kind, &attachment.ContainerType, &attachment.ContainerID,
		&attachment.DisplayState, &attachment.FileID,
		&attachment.CreatedBy, &attachment.UpdatedBy, &attachment.DeletedBy,
		&attachment.CreatedAt, &attachment.UpdatedAt, &attachment.DeletedAt,
		&file.ID, &file.Name, &file.Path, &file.MimeType, &file.Size,
		&file.CreatedBy, &file.UpdatedBy, &file.DeletedBy,
		&file.CreatedAt, &file.UpdatedAt, &file.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("attachment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	attachment.File = file
	return attachment, nil
}

// DeleteAttachment soft-deletes the active attachment for a container slot.
func (s *Store) DeleteAttachment(ctx context.Context, idc *identity.Context, kind model.AttachmentKind, containerType model.ContainerType, containerID int64) error {
	actorID := idc.ActorID()
	result, err := s.db.ExecContext(ctx, `
		UPDATE attachments
		SET deleted_at = NOW(), deleted_by = $1, updated_at = NOW(), updated_by = $2
		WHERE kind = $3 AND container_type = $4 AND container_id = $5
			AND display_state = 'normal' AND deleted_at IS NULL
	`, actorOrNil(actorID), actorID, kind, containerType, containerID)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NotFound("attachment")
	}
	return nil
}
