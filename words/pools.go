package words

var pools = map[Difficulty][]string{
	Easy: {
		"cat", "dog", "sun", "house", "tree", "car", "fish", "star",
		"ball", "book", "cup", "hat", "moon", "shoe", "clock", "apple",
		"chair", "door", "cloud", "boat", "bird", "flower", "pizza",
		"snake", "spoon", "candle", "ladder", "rainbow", "banana", "bridge",
	},
	Medium: {
		"elephant", "guitar", "volcano", "penguin", "lighthouse", "castle",
		"tornado", "helicopter", "scarecrow", "waterfall", "telescope",
		"campfire", "skeleton", "octopus", "windmill", "submarine",
		"treasure", "pyramid", "cactus", "jellyfish", "astronaut",
		"dinosaur", "fireworks", "snowman", "mermaid", "dragon",
		"parachute", "hammock", "compass", "anchor",
	},
	Hard: {
		"eclipse", "gravity", "symphony", "illusion", "avalanche",
		"labyrinth", "camouflage", "metamorphosis", "constellation",
		"silhouette", "quicksand", "hibernation", "mirage", "stalactite",
		"pendulum", "kaleidoscope", "archipelago", "tsunami", "origami",
		"equilibrium", "photosynthesis", "chameleon", "hourglass",
		"periscope", "centaur", "gargoyle", "monsoon", "aurora",
		"catapult", "ventriloquist",
	},
}
