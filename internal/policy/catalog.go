// Package policy holds the static restricted-business policy catalog.
// The catalog mirrors the prohibited-business clauses of a payments
// processor's restricted-business policy. It is loaded once at process
// start and never mutated.
package policy

// Category is one clause of the restricted-business policy against
// which every product is independently evaluated.
type Category struct {
	Key      string // Unique identifier, e.g. "weapons"
	Label    string // Human-readable policy name
	Examples string // Free-text list of illustrative violations
}

// Keys returns the category keys of the catalog in declaration order.
func Keys() []string {
	keys := make([]string, 0, len(catalog))
	for _, c := range catalog {
		keys = append(keys, c.Key)
	}
	return keys
}

// All returns every category in the catalog.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the category for a key.
func Get(key string) (Category, bool) {
	for _, c := range catalog {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Active returns the catalog minus the excluded keys. Exclusion lets a
// deployment disable a category judged too noisy without removing it
// from the catalog.
func Active(excluded []string) []Category {
	if len(excluded) == 0 {
		return All()
	}
	skip := make(map[string]bool, len(excluded))
	for _, k := range excluded {
		skip[k] = true
	}
	var out []Category
	for _, c := range catalog {
		if !skip[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

var catalog = []Category{
	{
		Key:   "illegal",
		Label: "Any illegal products and services",
		Examples: `
* Illegal drugs, substances designed to mimic illegal drugs, including kava
* Equipment and items intended to be used for making or using drugs
* Fake references or ID-providing services
* Telecommunications manipulation equipment, including jamming devices
* Businesses that engage in, encourage, promote, or celebrate unlawful violence or physical harm to persons or property
* Businesses that engage in, encourage, promote, or celebrate unlawful violence toward any group based on race, religion, disability, gender, sexual orientation, national origin, or any other immutable characteristic
* Any other products or services that are in violation of law in the jurisdictions where your business is located or to which your business is targeted
`,
	},
	{
		Key:   "adult",
		Label: "Adult content and services",
		Examples: `
* Adult services, including prostitution, escorts, pay-per-view, sexual massages, fetish services, mail-order brides, and adult live-chat features
* Adult video stores
* Gentleman's clubs, topless bars, and strip clubs
* All online dating services, including matchmakers
* Pornography and other mature-audience content (including literature, imagery, and other media) depicting nudity or explicit sexual acts
* Any artificial intelligence-generated content that meets the above criteria
`,
	},
	{
		Key:   "debt",
		Label: "Debt relief companies",
		Examples: `
* Debt settlement, debt negotiation, and debt consolidation
`,
	},
	{
		Key:   "financial",
		Label: "The following financial products and services",
		Examples: `
* ATMs
* Cheque cashing
* Debt collection agencies
* Funded prop trading
* Money orders and traveller's cheques
* Payable-through accounts
* Peer-to-peer money transmission
* Selling bearer shares
* Shell banks
`,
	},
	{
		Key:   "gambling",
		Label: "Gambling",
		Examples: `
* Games of chance including gambling, internet gambling, casino games, sweepstakes and contests, and fantasy sports leagues with a monetary or material prize
* Games of skill including video game and mobile game tournaments or competitions, darts, card games, and board games with a monetary or material prize
* Payments of an entry or player fee that promise the entrant or player will win a prize of value
* Sports forecasting or odds-making with a monetary or material prize
* Lotteries
* Bidding fee auctions
`,
	},
	{
		Key:   "government",
		Label: "Government services",
		Examples: `
* Offering products and services by or on behalf of embassies and consulates
* Offering government services without authorisation or value-add
* Offering government services with misleading claims
* Disbursement of government economic support, such as grants
`,
	},
	{
		Key:   "identity",
		Label: "Identity services",
		Examples: `
* Identity theft protection, services including monitoring and recovery
`,
	},
	{
		Key:   "intellectual",
		Label: "Products and services that infringe on intellectual property rights",
		Examples: `
* Sales or distribution of music, movies, software, or any other licensed materials without appropriate authorisation
* Counterfeit goods
* Illegally imported or exported products
* Unauthorised sale of brand-name or designer products or services
* Any other products or services that directly infringe or facilitate infringement upon the trademark, patent, copyright, trade secrets, proprietary, or privacy rights of any third party
`,
	},
	{
		Key:   "legal",
		Label: "The following legal services",
		Examples: `
* Bankruptcy lawyers
* Bail bonds
* Law firms collecting funds for purposes other than legal service fee payment
`,
	},
	{
		Key:   "lending",
		Label: "Lending and credit",
		Examples: `
* Loan repayments with credit cards
* Credit monitoring, credit repair, and counselling services
`,
	},
	{
		Key:   "marijuana",
		Label: "Marijuana",
		Examples: `
* Cannabis products
* Cannabis dispensaries and related businesses
* CBD products with THC levels greater than the applicable local jurisdiction's legal limit, including CBD edibles
* Hydroponic equipment and other cultivation or production equipment marketed for growing marijuana
* Courses and information on cultivating marijuana
`,
	},
	{
		Key:   "nutraceuticals",
		Label: "Nutraceuticals and pseudo-pharmaceuticals",
		Examples: `
* Pseudo-pharmaceuticals or nutraceuticals that are not safe or make harmful claims
`,
	},
	{
		Key:   "non-fiat",
		Label: "Non-fiat currency",
		Examples: `
* Cryptocurrency mining and staking
* Initial coin offerings (ICOs)
* Secondary NFT sales
`,
	},
	{
		Key:   "travel",
		Label: "Travel",
		Examples: `
* Commercial airlines and cruises
* Charter and private airlines
* Timeshare services
`,
	},
	{
		Key:   "unfair",
		Label: "Unfair, deceptive, or abusive acts or practices",
		Examples: `
* Pyramid schemes
* Multi-level marketing services offering commission or recruitment-based sales
* "Get rich quick" schemes, including investment opportunities or other services that promise high rewards to mislead consumers; schemes that claim to offer high rewards for very little effort or up-front work; and sites that promise fast and easy money
* Businesses that make outrageous claims, use deceptive testimonials, use high-pressure upselling, or use fake testimonials (with or without a written contract)
* Businesses offering unrealistic incentives or rewards as an inducement to purchase products or services
* No-value-added services, including the sale or resale of a service without added benefit to the buyer and resale of government offerings without authorisation or added value
* Sales of online traffic or engagement
* Negative option marketing, negative option membership clubs, and reduced price trials with unclear or hidden pricing
* Telemarketing
* Predatory mortgage consulting
* Predatory investment opportunities with no or low money down
`,
	},
	{
		Key:   "weapons",
		Label: "Weapons, firearms, explosives, and dangerous materials",
		Examples: `
* Guns, gunpowders, ammunitions, fireworks, and other explosives
* Weapon components such as firing pins, magazines, clips, and firearm conversion kits and any 3D-printed weapons
* Improperly marked replicas of modern firearms, including toys
* Pepper spray and stun guns
* Swords and katanas, unless they are meant as replicas or for the practice of martial arts
* Machetes
* Disguised knives and knives with opening mechanisms designed for quick deployment of a blade
* Pesticides requiring application by a certified professional
* Research chemicals
* Toxic, flammable, combustible, or radioactive materials
* Prohibited and restricted goods for postage, per the United States Postal Service
`,
	},
}
