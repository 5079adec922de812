package motion

// JointCount is the fixed joint count of every trajectory the converter
// handles: the 22 SMPL body joints, mapped onto Mixamo bone names for the
// rigging engine.
const JointCount = 22

// JointNames lists the Mixamo bone name for each joint index.
var JointNames = [JointCount]string{
	"Mixamorig:Hips", "Mixamorig:LeftUpLeg", "Mixamorig:RightUpLeg", "Mixamorig:Spine",
	"Mixamorig:LeftLeg", "Mixamorig:RightLeg", "Mixamorig:Spine1", "Mixamorig:LeftFoot",
	"Mixamorig:RightFoot", "Mixamorig:Spine2", "Mixamorig:LeftToeBase", "Mixamorig:RightToeBase",
	"Mixamorig:Neck", "Mixamorig:LeftShoulder", "Mixamorig:RightShoulder", "Mixamorig:Head",
	"Mixamorig:LeftArm", "Mixamorig:RightArm", "Mixamorig:LeftForeArm", "Mixamorig:RightForeArm",
	"Mixamorig:LeftHand", "Mixamorig:RightHand",
}

// Parents holds the SMPL parent index per joint, -1 for the root.
var Parents = [JointCount]int{
	-1, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 12, 13, 14, 16, 17, 18, 19,
}

// IsLeaf reports whether joint i has no children in the skeleton.
func IsLeaf(i int) bool {
	for _, p := range Parents {
		if p == i {
			return false
		}
	}
	return true
}
