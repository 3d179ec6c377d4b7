package words

// DefaultBank is the stock word list used when no custom bank is
// configured.
var DefaultBank = []string{
	"apple", "anchor", "balloon", "banana", "beach", "bicycle", "bridge",
	"bucket", "butterfly", "cactus", "camera", "candle", "castle", "cat",
	"cloud", "compass", "crayon", "crown", "diamond", "dinosaur", "dolphin",
	"dragon", "drum", "eagle", "elephant", "envelope", "feather", "fire",
	"fish", "flashlight", "flower", "fountain", "frog", "ghost", "giraffe",
	"guitar", "hammer", "hamburger", "helicopter", "igloo", "island",
	"jacket", "jellyfish", "kangaroo", "kite", "ladder", "lighthouse",
	"lion", "lizard", "magnet", "mermaid", "microphone", "monkey", "moon",
	"mountain", "mushroom", "octopus", "ostrich", "owl", "paintbrush",
	"palm", "parachute", "peacock", "penguin", "piano", "pirate", "pizza",
	"pumpkin", "rainbow", "robot", "rocket", "sailboat", "sandwich",
	"scissors", "shark", "skateboard", "snail", "snowman", "spider",
	"squirrel", "strawberry", "submarine", "sunflower", "telescope",
	"tent", "tiger", "tornado", "tractor", "treasure", "trophy", "trumpet",
	"turtle", "umbrella", "unicorn", "violin", "volcano", "waterfall",
	"whale", "windmill", "wizard", "zebra",
}
