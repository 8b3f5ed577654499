package domain

// BlobID names a file inside one storage area: the entity identity for
// records, the generated filename for uploads.
type BlobID string

func (id BlobID) String() string {
	return string(id)
}

// Blob is the raw content of one file in a storage area.
type Blob struct {
	ID   BlobID
	Body []byte
}

func NewBlob(id BlobID, body []byte) *Blob {
	return &Blob{ID: id, Body: body}
}

// Size returns the length of the content in bytes.
func (blob *Blob) Size() int64 {
	return int64(len(blob.Body))
}

// Bytes returns the content. The slice is shared with the blob.
func (blob *Blob) Bytes() []byte {
	return blob.Body
}
