package secinfo

import "fmt"

// ID is a 16-byte type identity: u32, u16, u16, then 8 raw bytes.
type ID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// String formats the ID in registry form, e.g. {16786594-0296-4471-8096-8f84497ca428}.
func (id ID) String() string {
	return fmt.Sprintf("{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		id.Data1, id.Data2, id.Data3,
		id.Data4[0], id.Data4[1],
		id.Data4[2], id.Data4[3], id.Data4[4], id.Data4[5], id.Data4[6], id.Data4[7])
}

// Type identities of the serialized nodes.
var (
	// SupportsIID is the generic interface ID every node is written under.
	SupportsIID = ID{0x00000000, 0x0000, 0x0000,
		[8]byte{0xc0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}

	// TransportSecurityInfoCID identifies the root record.
	TransportSecurityInfoCID = ID{0x16786594, 0x0296, 0x4471,
		[8]byte{0x80, 0x96, 0x8f, 0x84, 0x49, 0x7c, 0xa4, 0x28}}

	// Magic follows the root identity pair, exactly once.
	Magic = ID{0xa9863a23, 0x26b8, 0x4a9c,
		[8]byte{0x83, 0xf1, 0xe9, 0xda, 0xdb, 0x36, 0xb8, 0x30}}

	// SSLStatusCID identifies a TLSStatus node.
	SSLStatusCID = ID{0xe2f14826, 0x9e70, 0x4647,
		[8]byte{0xb2, 0x3f, 0x10, 0x10, 0xf5, 0x12, 0x46, 0x28}}

	// X509CertCID identifies a CertEntry node.
	X509CertCID = ID{0x660a3226, 0x915c, 0x4ffb,
		[8]byte{0xbb, 0x20, 0x89, 0x85, 0xa6, 0x32, 0xdf, 0x05}}

	// X509CertListCID identifies a CertList node.
	X509CertListCID = ID{0x959fb165, 0x6517, 0x487f,
		[8]byte{0xab, 0x9b, 0xd8, 0x91, 0x3b, 0xe5, 0x31, 0x97}}
)

// Node names used in errors.
const (
	nodeRoot      = "TransportSecurityInfo"
	nodeMagic     = "magic"
	nodeTLSStatus = "SSLStatus"
	nodeCert      = "X509Cert"
	nodeCertList  = "X509CertList"
)

// idSize is the encoded size of one ID.
const idSize = 16
