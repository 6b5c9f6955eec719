package mongostore

import (
	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/listing"
)

var (
	_ roomrent.AccountStore = (*Store)(nil)
	_ listing.Store         = (*Store)(nil)
	_ enquiry.Store         = (*Store)(nil)
)
