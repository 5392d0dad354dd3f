package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labmoura/laudos/internal/validate"
)

func TestUploadAcceptsPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	att, err := f.attachments.Upload(ctx, pdfUpload("laudo.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "laudo.pdf", att.Filename)
	assert.Nil(t, att.ReportID)
	assert.Equal(t, 1, f.files.Len())
	assert.Equal(t, "/files/"+att.Key, f.attachments.URL(att))

	redirect, body, err := f.attachments.Open(ctx, att.Key)
	require.NoError(t, err)
	assert.Empty(t, redirect)
	got, _ := io.ReadAll(body)
	assert.True(t, bytes.HasPrefix(got, []byte("%PDF-")))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := map[string]Upload{
		"wrong extension": {Filename: "laudo.docx", ContentType: "application/pdf", Size: 9, Body: bytes.NewReader([]byte("%PDF-1.4x"))},
		"wrong magic":     {Filename: "laudo.pdf", ContentType: "application/pdf", Size: 5, Body: bytes.NewReader([]byte("hello"))},
		"wrong type":      {Filename: "laudo.pdf", ContentType: "image/png", Size: 9, Body: bytes.NewReader([]byte("%PDF-1.4x"))},
		"empty":           {Filename: "laudo.pdf", ContentType: "application/pdf"},
		"too large":       {Filename: "laudo.pdf", ContentType: "application/pdf", Size: 4096, Body: bytes.NewReader([]byte("%PDF-"))},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.attachments.Upload(ctx, u)
			var verr validate.Errors
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr, "file")
		})
	}
	assert.Equal(t, 0, f.files.Len())
}

func TestDeleteAttachment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	att, err := f.attachments.Upload(ctx, pdfUpload("laudo.pdf"))
	require.NoError(t, err)
	require.NoError(t, f.attachments.Delete(ctx, att.ID))
	assert.Equal(t, 0, f.files.Len())

	assert.ErrorIs(t, f.attachments.Delete(ctx, att.ID), ErrAttachmentNotFound)
	assert.ErrorIs(t, f.attachments.Delete(ctx, uuid.New()), ErrAttachmentNotFound)
}

func TestOpenMissingFile(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.attachments.Open(context.Background(), "reports/missing.pdf")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = f.attachments.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
