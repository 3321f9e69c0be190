package pe

// SignatureInfo describes the Authenticode signature blob, if any. The
// security directory's VirtualAddress is a plain file offset, not an RVA.
type SignatureInfo struct {
	Present bool
	Offset  uint32
	Size    uint32
}

// Signature reports whether the image carries an embedded signature and
// where the certificate data lives in the file. Verification of the
// certificate itself is out of scope; this is presence diagnostics only.
func (img *Image) Signature() SignatureInfo {
	dir := img.DataDirectory(dirEntrySecurity)
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return SignatureInfo{}
	}
	return SignatureInfo{
		Present: true,
		Offset:  dir.VirtualAddress,
		Size:    dir.Size,
	}
}
