package checkout

type Bank struct {
	Code int
	Name string
}

type Wallet struct {
	ID   string
	Name string
}

// Banks lists the netbanking banks offered at checkout with their gateway codes.
var Banks = []Bank{
	{Code: 3003, Name: "HDFC Bank"},
	{Code: 3021, Name: "ICICI Bank"},
	{Code: 3044, Name: "State Bank of India"},
	{Code: 3005, Name: "Axis Bank"},
	{Code: 3032, Name: "Kotak Mahindra Bank"},
}

var Wallets = []Wallet{
	{ID: "paytm", Name: "Paytm"},
	{ID: "phonepe", Name: "PhonePe"},
	{ID: "gpay", Name: "Google Pay"},
	{ID: "amazon", Name: "Amazon Pay"},
}

func BankByCode(code int) (Bank, bool) {
	for _, b := range Banks {
		if b.Code == code {
			return b, true
		}
	}
	return Bank{}, false
}

func WalletByID(id string) (Wallet, bool) {
	for _, w := range Wallets {
		if w.ID == id {
			return w, true
		}
	}
	return Wallet{}, false
}
