package usecases

// User-facing messages raised by the use cases.
const (
	MsgEmptyHash           = "Please enter a certificate hash"
	MsgMissingPDF          = "Please select a PDF file"
	MsgNotPDF              = "Please upload a PDF file"
	MsgMissingFields       = "Please fill in all required fields"
	MsgInvalidIssueDate    = "Please enter a valid issue date (YYYY-MM-DD)"
	MsgMissingQRImage      = "Please select a QR code image"
	MsgDecoderUnavailable  = "QR decoder not available. Please upload QR image instead."
	MsgCameraDenied        = "Camera access denied. Please allow camera access or upload a QR image instead."
	MsgCameraUnavailable   = "Unable to access camera. Please upload QR image instead."
	MsgNoHashInQR          = "QR code does not contain a certificate hash"
	MsgCameraStreamEnded   = "No QR code found in camera stream"
	MsgProviderUnavailable = "MetaMask is not installed. Please install MetaMask to use this feature."
	MsgNoAccounts          = "No accounts found"
	MsgConnectionRejected  = "Wallet connection was rejected"
	MsgSwitchRejected      = "Network switch was rejected"
	MsgConnectFailed       = "Failed to connect wallet"
	MsgSwitchFailed        = "Failed to switch network"
	MsgWalletNotConnected  = "Please connect your wallet first"
	MsgUnsupportedNetwork  = "Unsupported network"
	MsgInvalidAddress      = "Invalid wallet address"
	MsgMissingInstitution  = "Institution name is required"
	MsgWalletAlreadyExists = "Wallet already registered"
	MsgInvalidCredentials  = "Invalid username or password"
	MsgAdminNotConfigured  = "Admin login is not configured"
)
